package transport

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/service"
)

type accessPolicy int

const (
	policyPublic accessPolicy = iota
	policyAuthenticated
	policyAdmin
)

// routePolicies is the per-operation authorization table, keyed by
// "METHOD path" with echo's registered path form. Ownership checks (comment
// author, favorite owner) stay in the handlers that load the row. Registered
// routes missing from the table require authentication.
var routePolicies = map[string]accessPolicy{
	"POST /api/auth/register/":      policyPublic,
	"POST /api/auth/login/":         policyPublic,
	"POST /api/auth/logout/":        policyAuthenticated,
	"GET /api/auth/me/":             policyAuthenticated,
	"POST /api/auth/token/refresh/": policyPublic,

	"GET /api/sounds/":        policyPublic,
	"POST /api/sounds/":       policyAdmin,
	"GET /api/sounds/:id/":    policyPublic,
	"PUT /api/sounds/:id/":    policyAdmin,
	"PATCH /api/sounds/:id/":  policyAdmin,
	"DELETE /api/sounds/:id/": policyAdmin,

	"GET /api/tags/":        policyPublic,
	"POST /api/tags/":       policyAdmin,
	"GET /api/tags/:id/":    policyPublic,
	"PUT /api/tags/:id/":    policyAdmin,
	"PATCH /api/tags/:id/":  policyAdmin,
	"DELETE /api/tags/:id/": policyAdmin,

	"GET /api/comments/":        policyPublic,
	"POST /api/comments/":       policyAuthenticated,
	"GET /api/comments/:id/":    policyPublic,
	"PUT /api/comments/:id/":    policyAuthenticated,
	"PATCH /api/comments/:id/":  policyAuthenticated,
	"DELETE /api/comments/:id/": policyAuthenticated,

	"GET /api/favorites/":           policyAuthenticated,
	"POST /api/favorites/":          policyAuthenticated,
	"DELETE /api/favorites/remove/": policyAuthenticated,

	"GET /ping": policyPublic,
}

// resolvePolicies maps every registered route to its policy. The debug-only
// media route serves files publicly, matching how the media directory is
// exposed in production by the web server in front.
func resolvePolicies(e *echo.Echo, cfg *config.Config) map[string]accessPolicy {
	mediaPrefix := trimTrailingSlash(cfg.MediaURL)
	policies := make(map[string]accessPolicy, len(e.Routes()))
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if policy, ok := routePolicies[key]; ok {
			policies[key] = policy
			continue
		}
		if cfg.Debug && strings.HasPrefix(r.Path, mediaPrefix) {
			policies[key] = policyPublic
			continue
		}
		policies[key] = policyAuthenticated
	}
	return policies
}

// authorize evaluates the policy table before the handler runs.
func (s *HTTPServer) authorize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Method + " " + c.Path()
			policy, ok := s.policies[key]
			if !ok {
				// No registered route; let the router answer with its 404.
				return next(c)
			}
			if policy == policyPublic {
				return next(c)
			}

			user := currentUser(c)
			if user == nil {
				return service.AuthenticationError("Authentication credentials were not provided.")
			}
			if policy == policyAdmin && !user.IsStaff {
				s.sec.Warnw("admin operation denied", "user_id", user.ID, "operation", key)
				return service.PermissionError("You do not have permission to perform this action.")
			}
			return next(c)
		}
	}
}

// resolveToken authenticates the request when a Bearer access token is
// present. Anonymous requests pass through; the policy table decides whether
// they get in.
func (s *HTTPServer) resolveToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				// Unknown scheme: treat as anonymous.
				return next(c)
			}

			claims, err := s.tokens.ParseAccess(parts[1])
			if err != nil {
				s.sec.Warnw("rejected access token", "ip", c.RealIP(), "reason", err.Error())
				return service.AuthenticationError("Token is invalid or expired.")
			}
			user, err := s.auth.UserByID(claims.UserID)
			if err != nil {
				return err
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// throttle enforces the two request-rate buckets: anonymous by IP, and
// authenticated by user id. Counters live in the stock in-process store.
func (s *HTTPServer) throttle() echo.MiddlewareFunc {
	anonStore := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(s.cfg.AnonThrottlePerHour) / 3600.0),
		Burst:     s.cfg.AnonThrottlePerHour,
		ExpiresIn: time.Hour,
	})
	userStore := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(s.cfg.UserThrottlePerHour) / 3600.0),
		Burst:     s.cfg.UserThrottlePerHour,
		ExpiresIn: time.Hour,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var (
				allowed    bool
				err        error
				identifier string
			)
			if user := currentUser(c); user != nil {
				identifier = fmt.Sprintf("user:%d", user.ID)
				allowed, err = userStore.Allow(identifier)
			} else {
				identifier = "ip:" + c.RealIP()
				allowed, err = anonStore.Allow(identifier)
			}
			if err != nil {
				return err
			}
			if !allowed {
				s.sec.Warnw("request throttled", "identifier", identifier, "path", c.Request().URL.Path)
				return service.RateLimitError("Request was throttled.")
			}
			return next(c)
		}
	}
}

// loginThrottle caps login attempts per IP independently of the general
// buckets, so credential stuffing trips early.
func (s *HTTPServer) loginThrottle() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(s.cfg.LoginThrottlePerMinute) / 60.0),
		Burst:     s.cfg.LoginThrottlePerMinute,
		ExpiresIn: time.Minute,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, err := store.Allow(c.RealIP())
			if err != nil {
				return err
			}
			if !allowed {
				s.sec.Warnw("login throttled", "ip", c.RealIP())
				return service.RateLimitError("Request was throttled.")
			}
			return next(c)
		}
	}
}

// securityHeaders sets the browser-facing security response headers.
func (s *HTTPServer) securityHeaders() echo.MiddlewareFunc {
	secure := middleware.SecureWithConfig(middleware.SecureConfig{
		XFrameOptions:         "DENY",
		ContentTypeNosniff:    "nosniff",
		ContentSecurityPolicy: s.cfg.ContentSecurityPolicy,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            hstsMaxAge(s.cfg.UseTLS),
		HSTSPreloadEnabled:    s.cfg.UseTLS,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return secure(func(c echo.Context) error {
			c.Response().Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		})
	}
}

func hstsMaxAge(useTLS bool) int {
	if useTLS {
		return 31536000
	}
	return 0
}

// requireAllowedHost rejects requests whose Host header is not on the
// allow-list. "*" disables the check.
func (s *HTTPServer) requireAllowedHost() echo.MiddlewareFunc {
	allowed := s.cfg.AllowedHostList()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			host := c.Request().Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			host = strings.Trim(host, "[]")
			for _, a := range allowed {
				if a == "*" || strings.EqualFold(a, host) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid host header.")
		}
	}
}

// authBodyLogger dumps auth request bodies at debug level with credential
// fields censored.
func (s *HTTPServer) authBodyLogger() echo.MiddlewareFunc {
	return middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/auth/")
		},
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			s.logger.Debugw("auth request",
				"path", c.Request().URL.Path,
				"body", string(censorBody(reqBody)),
			)
		},
	})
}

// censorBody replaces credential fields in a JSON body so they never reach a
// log line.
func censorBody(body []byte) []byte {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return body
	}
	for _, key := range []string{"password", "refresh"} {
		if _, ok := payload[key]; ok {
			payload[key] = "$censored"
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return body
	}
	return out
}
