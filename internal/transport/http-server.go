package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/soundvault/soundvault-back/internal/auth"
	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/seclog"
	"github.com/soundvault/soundvault-back/internal/service"
)

const userContextKey = "user"

type (
	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		e        *echo.Echo
		cfg      *config.Config
		logger   *zap.SugaredLogger
		sec      *seclog.Logger
		policies map[string]accessPolicy

		tokens    *auth.Manager
		auth      *service.Auth
		sounds    *service.Sounds
		tags      *service.Tags
		comments  *service.Comments
		favorites *service.Favorites
	}
)

func New(
	cfg *config.Config,
	logger *zap.SugaredLogger,
	sec *seclog.Logger,
	tokens *auth.Manager,
	authSvc *service.Auth,
	sounds *service.Sounds,
	tags *service.Tags,
	comments *service.Comments,
	favorites *service.Favorites,
) *HTTPServer {
	s := &HTTPServer{
		cfg:       cfg,
		logger:    logger,
		sec:       sec,
		tokens:    tokens,
		auth:      authSvc,
		sounds:    sounds,
		tags:      tags,
		comments:  comments,
		favorites: favorites,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOriginList(),
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodDelete, http.MethodGet, http.MethodOptions,
			http.MethodPatch, http.MethodPost, http.MethodPut,
		},
		AllowHeaders: []string{
			echo.HeaderAccept, echo.HeaderAcceptEncoding, echo.HeaderAuthorization,
			echo.HeaderContentType, echo.HeaderOrigin, "User-Agent", "X-Requested-With",
		},
	}))
	e.Use(s.securityHeaders())
	e.Use(s.requireAllowedHost())
	e.Use(s.resolveToken())
	e.Use(s.throttle())
	e.Use(s.authorize())
	if cfg.Debug {
		e.Use(s.authBodyLogger())
	}

	e.POST("/api/auth/register/", s.AuthRegister)
	e.POST("/api/auth/login/", s.AuthLogin, s.loginThrottle())
	e.POST("/api/auth/logout/", s.AuthLogout)
	e.GET("/api/auth/me/", s.AuthMe)
	e.POST("/api/auth/token/refresh/", s.AuthRefresh)

	soundG := e.Group("/api/sounds")
	soundG.GET("/", s.SoundList)
	soundG.POST("/", s.SoundCreate)
	soundG.GET("/:id/", s.SoundRetrieve)
	soundG.PUT("/:id/", s.SoundUpdate)
	soundG.PATCH("/:id/", s.SoundPartialUpdate)
	soundG.DELETE("/:id/", s.SoundDelete)

	tagG := e.Group("/api/tags")
	tagG.GET("/", s.TagList)
	tagG.POST("/", s.TagCreate)
	tagG.GET("/:id/", s.TagRetrieve)
	tagG.PUT("/:id/", s.TagUpdate)
	tagG.PATCH("/:id/", s.TagUpdate)
	tagG.DELETE("/:id/", s.TagDelete)

	commentG := e.Group("/api/comments")
	commentG.GET("/", s.CommentList)
	commentG.POST("/", s.CommentCreate)
	commentG.GET("/:id/", s.CommentRetrieve)
	commentG.PUT("/:id/", s.CommentUpdate)
	commentG.PATCH("/:id/", s.CommentUpdate)
	commentG.DELETE("/:id/", s.CommentDelete)

	favoriteG := e.Group("/api/favorites")
	favoriteG.GET("/", s.FavoriteList)
	favoriteG.POST("/", s.FavoriteCreate)
	favoriteG.DELETE("/remove/", s.FavoriteRemove)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	if cfg.Debug {
		e.Static(trimTrailingSlash(cfg.MediaURL), cfg.MediaRoot)
	}

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found."})
	}

	s.policies = resolvePolicies(e, cfg)
	s.e = e
	return s
}

// Echo exposes the router for in-process tests.
func (s *HTTPServer) Echo() *echo.Echo {
	return s.e
}

// Register wires the server into the fx lifecycle.
func Register(lc fx.Lifecycle, s *HTTPServer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := s.cfg.Host + ":" + s.cfg.Port
				if err := s.e.Start(listen); err != nil && err != http.ErrServerClosed {
					s.logger.Fatalw("HTTP server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("Stopping HTTP server.")
			return s.e.Shutdown(ctx)
		},
	})
}

// httpErrorHandler converts the service error taxonomy into uniform
// {"error": message} bodies. Anything unclassified is a 500 without detail;
// the detail goes to the server log only.
func (s *HTTPServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, echo.Map{"error": fmt.Sprintf("%v", he.Message)})
		return
	}

	status := 0
	switch service.KindOf(err) {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindAuthentication:
		status = http.StatusUnauthorized
	case service.KindPermission:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindRateLimited:
		status = http.StatusTooManyRequests
	}
	if status != 0 {
		_ = c.JSON(status, echo.Map{"error": err.Error()})
		return
	}

	s.logger.Errorw("internal error",
		"error", err,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)
	_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error."})
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return err
	}
	return nil
}

// currentUser returns the caller resolved from the access token, or nil for
// anonymous requests.
func currentUser(c echo.Context) *db.User {
	if u, ok := c.Get(userContextKey).(*db.User); ok {
		return u
	}
	return nil
}

func requireUser(c echo.Context) (*db.User, error) {
	user := currentUser(c)
	if user == nil {
		return nil, service.AuthenticationError("Authentication credentials were not provided.")
	}
	return user, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid path param '%s'", name))
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, err := GetParam(c, name)
	if err != nil {
		return 0, err
	}
	vv, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid path param '%s'", name))
	}
	return vv, nil
}

func trimTrailingSlash(s string) string {
	if len(s) > 1 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
