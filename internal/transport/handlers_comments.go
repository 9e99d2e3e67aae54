package transport

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/soundvault/soundvault-back/internal/service"
)

type (
	CommentCreateReq struct {
		Sound   uint64 `json:"sound" validate:"required"`
		Content string `json:"content" validate:"required"`
	}

	CommentUpdateReq struct {
		Content string `json:"content" validate:"required"`
	}
)

func (s *HTTPServer) CommentList(c echo.Context) error {
	var soundID uint64
	if raw := c.QueryParam("sound"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return service.ValidationError("Invalid sound id.")
		}
		soundID = parsed
	}

	p := pageFromRequest(c)
	comments, count, err := s.comments.List(soundID, p.offset(), p.size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.envelope(c, p, count, commentViews(comments)))
}

func (s *HTTPServer) CommentRetrieve(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	comment, err := s.comments.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, commentView(comment))
}

func (s *HTTPServer) CommentCreate(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	req := CommentCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := s.comments.Create(user, req.Sound, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, commentView(comment))
}

func (s *HTTPServer) CommentUpdate(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	req := CommentUpdateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := s.comments.Update(user, id, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, commentView(comment))
}

func (s *HTTPServer) CommentDelete(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.comments.Delete(user, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
