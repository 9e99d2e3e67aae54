package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/db/dbtest"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:       "unit-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func newTestManager(t *testing.T, cfg *config.Config) (*Manager, *gorm.DB, *db.User) {
	t.Helper()
	gdb := dbtest.Open(t)
	m, err := NewManager(cfg, gdb)
	require.NoError(t, err)

	user := db.User{Username: "alice", Email: "alice@example.com", Password: "x", IsActive: true}
	require.NoError(t, gdb.Create(&user).Error)
	return m, gdb, &user
}

func TestIssueAndParsePair(t *testing.T) {
	m, _, user := newTestManager(t, testConfig())

	pair, err := m.IssuePair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := m.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TypeAccess, claims.TokenType)

	refreshClaims, err := m.ParseRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, refreshClaims.TokenType)
}

func TestParseRejectsWrongType(t *testing.T) {
	m, _, user := newTestManager(t, testConfig())

	pair, err := m.IssuePair(user)
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenWrongType)

	_, err = m.Parse(pair.Access, TypeRefresh)
	assert.ErrorIs(t, err, ErrTokenWrongType)
}

func TestParseRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	m, _, user := newTestManager(t, cfg)

	pair, err := m.IssuePair(user)
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.Access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	m, _, user := newTestManager(t, testConfig())

	otherCfg := testConfig()
	otherCfg.SecretKey = "a-different-secret"
	other, _, _ := newTestManager(t, otherCfg)

	pair, err := other.IssuePair(user)
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.Access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRotateBlacklistsOldToken(t *testing.T) {
	m, _, user := newTestManager(t, testConfig())

	pair, err := m.IssuePair(user)
	require.NoError(t, err)

	next, err := m.Rotate(pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, next.Refresh)

	// The redeemed token is single-use.
	_, err = m.Rotate(pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)

	// The new one still works.
	_, err = m.Rotate(next.Refresh)
	assert.NoError(t, err)
}

func TestRevokePreventsRotation(t *testing.T) {
	m, _, user := newTestManager(t, testConfig())

	pair, err := m.IssuePair(user)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(pair.Refresh))

	_, err = m.ParseRefresh(pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)

	_, err = m.Rotate(pair.Refresh)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)

	// A second revoke sees the token already blacklisted.
	assert.ErrorIs(t, m.Revoke(pair.Refresh), ErrTokenBlacklisted)
}

func TestRotateRejectsInactiveUser(t *testing.T) {
	m, gdb, user := newTestManager(t, testConfig())

	pair, err := m.IssuePair(user)
	require.NoError(t, err)

	require.NoError(t, gdb.Model(user).Update("is_active", false).Error)

	_, err = m.Rotate(pair.Refresh)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestPurgeExpired(t *testing.T) {
	m, gdb, _ := newTestManager(t, testConfig())

	require.NoError(t, gdb.Create(&db.BlacklistedToken{
		JTI:       "stale",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, gdb.Create(&db.BlacklistedToken{
		JTI:       "fresh",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, m.PurgeExpired())

	var count int64
	require.NoError(t, gdb.Model(&db.BlacklistedToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
