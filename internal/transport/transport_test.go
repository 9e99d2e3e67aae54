package transport

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/auth"
	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/db/dbtest"
	"github.com/soundvault/soundvault-back/internal/seclog"
	"github.com/soundvault/soundvault-back/internal/service"
)

const testPassword = "sound-pass-123"

type testEnv struct {
	cfg    *config.Config
	gdb    *gorm.DB
	tokens *auth.Manager
	hs     *HTTPServer
	srv    *httptest.Server
	client *resty.Client
}

// newTestEnv spins up the full router over an in-memory database. The
// throttle limits default high enough to stay invisible; tests that exercise
// throttling dial them down via mutate.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Debug:                  true,
		SecretKey:              "transport-test-secret",
		AllowedHosts:           "*",
		MediaURL:               "/media/",
		MediaRoot:              t.TempDir(),
		ContentSecurityPolicy:  "default-src 'self'; frame-ancestors 'none'",
		PasswordMinLength:      10,
		AccessTokenTTL:         time.Hour,
		RefreshTokenTTL:        7 * 24 * time.Hour,
		AnonThrottlePerHour:    100000,
		UserThrottlePerHour:    100000,
		LoginThrottlePerMinute: 1000,
	}
	if mutate != nil {
		mutate(cfg)
	}

	gdb := dbtest.Open(t)
	tokens, err := auth.NewManager(cfg, gdb)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	sec := seclog.Nop()

	hs := New(cfg, logger, sec, tokens,
		service.NewAuth(cfg, gdb, tokens, logger, sec),
		service.NewSounds(gdb, logger),
		service.NewTags(gdb, logger),
		service.NewComments(gdb, logger, sec),
		service.NewFavorites(gdb, logger),
	)

	srv := httptest.NewServer(hs.Echo())
	t.Cleanup(srv.Close)

	return &testEnv{
		cfg:    cfg,
		gdb:    gdb,
		tokens: tokens,
		hs:     hs,
		srv:    srv,
		client: resty.New().SetBaseURL(srv.URL),
	}
}

// seedUser creates a user row directly and returns it with a valid access
// token, bypassing the register endpoint.
func (env *testEnv) seedUser(t *testing.T, username string, staff bool) (*db.User, *auth.TokenPair) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, env.gdb.Create(&user).Error)

	pair, err := env.tokens.IssuePair(&user)
	require.NoError(t, err)
	return &user, pair
}

func (env *testEnv) seedTag(t *testing.T, name string) *db.Tag {
	t.Helper()
	tag := db.Tag{Name: name}
	require.NoError(t, env.gdb.Create(&tag).Error)
	return &tag
}

func (env *testEnv) seedSound(t *testing.T, owner *db.User, name string, tags ...*db.Tag) *db.Sound {
	t.Helper()
	sound := db.Sound{
		Name:         name,
		MP3File:      "sounds/mp3/" + name + ".mp3",
		UploadedByID: owner.ID,
	}
	for _, tag := range tags {
		sound.Tags = append(sound.Tags, *tag)
	}
	require.NoError(t, env.gdb.Create(&sound).Error)
	return &sound
}

func bearer(pair *auth.TokenPair) string {
	return "Bearer " + pair.Access
}
