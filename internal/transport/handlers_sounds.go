package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundvault/soundvault-back/internal/service"
)

type (
	SoundWriteReq struct {
		Name        string   `json:"name" validate:"required"`
		Description *string  `json:"description"`
		MP3File     string   `json:"mp3_file" validate:"required"`
		Image       *string  `json:"image"`
		Tags        []uint64 `json:"tags"`
	}

	SoundPatchReq struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		MP3File     *string   `json:"mp3_file"`
		Image       *string   `json:"image"`
		Tags        *[]uint64 `json:"tags"`
	}
)

func (s *HTTPServer) SoundList(c echo.Context) error {
	q := service.SoundQuery{
		Tag:      c.QueryParam("tag"),
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
	}
	p := pageFromRequest(c)

	sounds, count, err := s.sounds.List(q, p.offset(), p.size)
	if err != nil {
		return err
	}

	var favorited map[uint64]bool
	if user := currentUser(c); user != nil {
		ids := make([]uint64, len(sounds))
		for i := range sounds {
			ids[i] = sounds[i].ID
		}
		favorited, err = s.sounds.FavoritedSet(user.ID, ids)
		if err != nil {
			return err
		}
	}

	results := make([]SoundListResp, len(sounds))
	for i := range sounds {
		results[i] = s.soundListView(c, &sounds[i], favorited[sounds[i].ID])
	}
	return c.JSON(http.StatusOK, s.envelope(c, p, count, results))
}

func (s *HTTPServer) SoundRetrieve(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	sound, err := s.sounds.Get(id)
	if err != nil {
		return err
	}
	comments, err := s.sounds.RecentComments(id, 10)
	if err != nil {
		return err
	}
	favoriteCount, err := s.sounds.FavoriteCount(id)
	if err != nil {
		return err
	}

	isFavorite := false
	if user := currentUser(c); user != nil {
		set, err := s.sounds.FavoritedSet(user.ID, []uint64{id})
		if err != nil {
			return err
		}
		isFavorite = set[id]
	}

	return c.JSON(http.StatusOK, s.soundDetailView(c, sound, isFavorite, comments, favoriteCount))
}

func (s *HTTPServer) SoundCreate(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	req := SoundWriteReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	sound, err := s.sounds.Create(user, req.Name, req.Description, req.MP3File, req.Image, req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, soundWriteView(sound))
}

func (s *HTTPServer) SoundUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	req := SoundWriteReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tags := req.Tags
	if tags == nil {
		tags = []uint64{}
	}
	sound, err := s.sounds.Update(id, service.SoundUpdate{
		Name:        &req.Name,
		Description: req.Description,
		MP3File:     &req.MP3File,
		Image:       req.Image,
		Tags:        &tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, soundWriteView(sound))
}

func (s *HTTPServer) SoundPartialUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	req := SoundPatchReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	sound, err := s.sounds.Update(id, service.SoundUpdate{
		Name:        req.Name,
		Description: req.Description,
		MP3File:     req.MP3File,
		Image:       req.Image,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, soundWriteView(sound))
}

func (s *HTTPServer) SoundDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.sounds.Delete(id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
