package transport

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/soundvault/soundvault-back/internal/service"
)

type FavoriteCreateReq struct {
	Sound uint64 `json:"sound" validate:"required"`
}

func (s *HTTPServer) FavoriteList(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	p := pageFromRequest(c)
	favorites, count, err := s.favorites.List(user.ID, p.offset(), p.size)
	if err != nil {
		return err
	}

	results := make([]FavoriteResp, len(favorites))
	for i := range favorites {
		favorites[i].User = *user
		results[i] = s.favoriteView(c, &favorites[i])
	}
	return c.JSON(http.StatusOK, s.envelope(c, p, count, results))
}

func (s *HTTPServer) FavoriteCreate(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	req := FavoriteCreateReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	favorite, err := s.favorites.Create(user, req.Sound)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.favoriteView(c, favorite))
}

// FavoriteRemove deletes the caller's favorite keyed by sound id, mirroring
// DELETE /api/favorites/remove/?sound={id}.
func (s *HTTPServer) FavoriteRemove(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	raw := c.QueryParam("sound")
	if raw == "" {
		return service.ValidationError("Sound ID is required.")
	}
	soundID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return service.ValidationError("Invalid sound id.")
	}

	if err := s.favorites.RemoveBySound(user.ID, soundID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
