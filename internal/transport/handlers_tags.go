package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type TagReq struct {
	Name string `json:"name" validate:"required"`
}

func (s *HTTPServer) TagList(c echo.Context) error {
	p := pageFromRequest(c)

	tags, count, err := s.tags.List(c.QueryParam("search"), p.offset(), p.size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.envelope(c, p, count, tagViews(tags)))
}

func (s *HTTPServer) TagRetrieve(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	tag, err := s.tags.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TagResp{ID: tag.ID, Name: tag.Name})
}

func (s *HTTPServer) TagCreate(c echo.Context) error {
	req := TagReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := s.tags.Create(req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, TagResp{ID: tag.ID, Name: tag.Name})
}

func (s *HTTPServer) TagUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	req := TagReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := s.tags.Update(id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TagResp{ID: tag.ID, Name: tag.Name})
}

func (s *HTTPServer) TagDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.tags.Delete(id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
