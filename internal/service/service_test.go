package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/auth"
	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/db/dbtest"
	"github.com/soundvault/soundvault-back/internal/seclog"
)

type fixture struct {
	gdb       *gorm.DB
	cfg       *config.Config
	tokens    *auth.Manager
	auth      *Auth
	sounds    *Sounds
	tags      *Tags
	comments  *Comments
	favorites *Favorites
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := dbtest.Open(t)
	cfg := &config.Config{
		SecretKey:         "service-test-secret",
		PasswordMinLength: 10,
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
	}

	tokens, err := auth.NewManager(cfg, gdb)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	sec := seclog.Nop()

	return &fixture{
		gdb:       gdb,
		cfg:       cfg,
		tokens:    tokens,
		auth:      NewAuth(cfg, gdb, tokens, logger, sec),
		sounds:    NewSounds(gdb, logger),
		tags:      NewTags(gdb, logger),
		comments:  NewComments(gdb, logger, sec),
		favorites: NewFavorites(gdb, logger),
	}
}

func (f *fixture) createUser(t *testing.T, username string, staff bool) *db.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("longenough1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := db.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, f.gdb.Create(&user).Error)
	return &user
}

func (f *fixture) createTag(t *testing.T, name string) *db.Tag {
	t.Helper()
	tag := db.Tag{Name: name}
	require.NoError(t, f.gdb.Create(&tag).Error)
	return &tag
}

func (f *fixture) createSound(t *testing.T, owner *db.User, name string, tags ...*db.Tag) *db.Sound {
	t.Helper()
	sound := db.Sound{
		Name:         name,
		MP3File:      "sounds/mp3/" + name + ".mp3",
		UploadedByID: owner.ID,
	}
	for _, tag := range tags {
		sound.Tags = append(sound.Tags, *tag)
	}
	require.NoError(t, f.gdb.Create(&sound).Error)
	return &sound
}
