package transport

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundvault/soundvault-back/internal/db"
)

// Wire projections. Each entity gets pure transformation functions per view
// intent instead of a serializer hierarchy.
type (
	UserResp struct {
		ID       uint64 `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		IsAdmin  bool   `json:"isAdmin"`
	}

	TagResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}

	CommentResp struct {
		ID        uint64    `json:"id"`
		Sound     uint64    `json:"sound"`
		User      UserResp  `json:"user"`
		UserName  string    `json:"user_name"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}

	// SoundListResp is the list view: derived media URLs, owner display name
	// only, and the caller-relative favorite flag.
	SoundListResp struct {
		ID          uint64    `json:"id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		ImageURL    *string   `json:"image_url"`
		MP3URL      string    `json:"mp3_url"`
		Tags        []TagResp `json:"tags"`
		UploadedBy  string    `json:"uploaded_by"`
		CreatedAt   time.Time `json:"created_at"`
		IsFavorite  bool      `json:"is_favorite"`
	}

	// SoundDetailResp adds the full owner projection, update time, embedded
	// recent comments and the favorite count.
	SoundDetailResp struct {
		ID            uint64        `json:"id"`
		Name          string        `json:"name"`
		Description   *string       `json:"description"`
		ImageURL      *string       `json:"image_url"`
		MP3URL        string        `json:"mp3_url"`
		Tags          []TagResp     `json:"tags"`
		UploadedBy    UserResp      `json:"uploaded_by"`
		CreatedAt     time.Time     `json:"created_at"`
		UpdatedAt     time.Time     `json:"updated_at"`
		IsFavorite    bool          `json:"is_favorite"`
		Comments      []CommentResp `json:"comments"`
		FavoriteCount int64         `json:"favorite_count"`
	}

	// SoundWriteResp echoes the write view back: raw file references and tag
	// ids, with the server-assigned owner and timestamps.
	SoundWriteResp struct {
		ID          uint64    `json:"id"`
		Name        string    `json:"name"`
		Description *string   `json:"description"`
		MP3File     string    `json:"mp3_file"`
		Image       *string   `json:"image"`
		Tags        []uint64  `json:"tags"`
		UploadedBy  uint64    `json:"uploaded_by"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	FavoriteResp struct {
		ID          uint64        `json:"id"`
		SoundDetail SoundListResp `json:"sound_detail"`
		User        UserResp      `json:"user"`
		CreatedAt   time.Time     `json:"created_at"`
	}

	AuthResp struct {
		User   UserResp  `json:"user"`
		Tokens TokenResp `json:"tokens"`
	}

	TokenResp struct {
		Refresh string `json:"refresh"`
		Access  string `json:"access"`
	}
)

func userView(u *db.User) UserResp {
	return UserResp{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsStaff,
	}
}

func tagViews(tags []db.Tag) []TagResp {
	out := make([]TagResp, len(tags))
	for i := range tags {
		out[i] = TagResp{ID: tags[i].ID, Name: tags[i].Name}
	}
	return out
}

func commentView(cm *db.Comment) CommentResp {
	return CommentResp{
		ID:        cm.ID,
		Sound:     cm.SoundID,
		User:      userView(&cm.User),
		UserName:  cm.User.Username,
		Content:   cm.Content,
		CreatedAt: cm.CreatedAt,
	}
}

func commentViews(comments []db.Comment) []CommentResp {
	out := make([]CommentResp, len(comments))
	for i := range comments {
		out[i] = commentView(&comments[i])
	}
	return out
}

func (s *HTTPServer) soundListView(c echo.Context, snd *db.Sound, isFavorite bool) SoundListResp {
	return SoundListResp{
		ID:          snd.ID,
		Name:        snd.Name,
		Description: snd.Description,
		ImageURL:    s.optionalMediaURL(c, snd.Image),
		MP3URL:      s.mediaURL(c, snd.MP3File),
		Tags:        tagViews(snd.Tags),
		UploadedBy:  snd.UploadedBy.Username,
		CreatedAt:   snd.CreatedAt,
		IsFavorite:  isFavorite,
	}
}

func (s *HTTPServer) soundDetailView(c echo.Context, snd *db.Sound, isFavorite bool, comments []db.Comment, favoriteCount int64) SoundDetailResp {
	return SoundDetailResp{
		ID:            snd.ID,
		Name:          snd.Name,
		Description:   snd.Description,
		ImageURL:      s.optionalMediaURL(c, snd.Image),
		MP3URL:        s.mediaURL(c, snd.MP3File),
		Tags:          tagViews(snd.Tags),
		UploadedBy:    userView(&snd.UploadedBy),
		CreatedAt:     snd.CreatedAt,
		UpdatedAt:     snd.UpdatedAt,
		IsFavorite:    isFavorite,
		Comments:      commentViews(comments),
		FavoriteCount: favoriteCount,
	}
}

func soundWriteView(snd *db.Sound) SoundWriteResp {
	tagIDs := make([]uint64, len(snd.Tags))
	for i := range snd.Tags {
		tagIDs[i] = snd.Tags[i].ID
	}
	return SoundWriteResp{
		ID:          snd.ID,
		Name:        snd.Name,
		Description: snd.Description,
		MP3File:     snd.MP3File,
		Image:       snd.Image,
		Tags:        tagIDs,
		UploadedBy:  snd.UploadedByID,
		CreatedAt:   snd.CreatedAt,
		UpdatedAt:   snd.UpdatedAt,
	}
}

func (s *HTTPServer) favoriteView(c echo.Context, fav *db.Favorite) FavoriteResp {
	return FavoriteResp{
		ID:          fav.ID,
		SoundDetail: s.soundListView(c, &fav.Sound, true),
		User:        userView(&fav.User),
		CreatedAt:   fav.CreatedAt,
	}
}

// absoluteURL builds an absolute URL for the given path-and-query against the
// current request. The scheme is forced to https when a TLS-terminating proxy
// announces itself or when running outside debug mode. With no request
// context the configured base URL is the fallback; failing that, the path is
// returned unchanged.
func (s *HTTPServer) absoluteURL(c echo.Context, pathAndQuery string) string {
	if c != nil && c.Request() != nil {
		scheme := c.Scheme()
		if scheme == "http" &&
			(c.Request().Header.Get(echo.HeaderXForwardedProto) == "https" || !s.cfg.Debug) {
			scheme = "https"
		}
		return scheme + "://" + c.Request().Host + pathAndQuery
	}
	if s.cfg.BaseURL != "" {
		return strings.TrimSuffix(s.cfg.BaseURL, "/") + pathAndQuery
	}
	return pathAndQuery
}

func (s *HTTPServer) mediaURL(c echo.Context, ref string) string {
	path := s.cfg.MediaURL
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return s.absoluteURL(c, path+strings.TrimPrefix(ref, "/"))
}

func (s *HTTPServer) optionalMediaURL(c echo.Context, ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	u := s.mediaURL(c, *ref)
	return &u
}
