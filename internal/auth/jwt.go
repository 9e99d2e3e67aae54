package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrTokenInvalid     = errors.New("token is invalid or expired")
	ErrTokenWrongType   = errors.New("unexpected token type")
	ErrTokenBlacklisted = errors.New("token is blacklisted")
	ErrUserInactive     = errors.New("user is inactive or gone")
)

type (
	// Claims carries user identity only; tokens are signed, not encrypted,
	// so nothing secret belongs here.
	Claims struct {
		UserID    uint64 `json:"user_id"`
		Username  string `json:"username"`
		TokenType string `json:"token_type"`
		jwt.RegisteredClaims
	}

	TokenPair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	// Manager issues and validates HS256 token pairs and keeps the refresh
	// blacklist. Refresh tokens are single-use: Rotate blacklists the
	// redeemed token before issuing the next pair.
	Manager struct {
		secret     []byte
		accessTTL  time.Duration
		refreshTTL time.Duration
		gdb        *gorm.DB
	}
)

func NewManager(cfg *config.Config, gdb *gorm.DB) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("signing key is required")
	}
	return &Manager{
		secret:     []byte(cfg.SecretKey),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		gdb:        gdb,
	}, nil
}

func (m *Manager) IssuePair(user *db.User) (*TokenPair, error) {
	access, err := m.sign(user, TypeAccess, m.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "sign access token")
	}
	refresh, err := m.sign(user, TypeRefresh, m.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "sign refresh token")
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) sign(user *db.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates signature, expiry and token type. The keyfunc pins HMAC to
// reject algorithm-confusion tokens.
func (m *Manager) Parse(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != wantType {
		return nil, ErrTokenWrongType
	}
	return claims, nil
}

func (m *Manager) ParseAccess(tokenString string) (*Claims, error) {
	return m.Parse(tokenString, TypeAccess)
}

// ParseRefresh additionally rejects blacklisted refresh tokens.
func (m *Manager) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := m.Parse(tokenString, TypeRefresh)
	if err != nil {
		return nil, err
	}
	blacklisted, err := m.isBlacklisted(claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}
	return claims, nil
}

// Rotate redeems a refresh token for a fresh pair. The old token is
// blacklisted first so a replay of it fails even if issuing the new pair
// does not complete.
func (m *Manager) Rotate(refreshToken string) (*TokenPair, error) {
	claims, err := m.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user := db.User{}
	res := m.gdb.First(&user, claims.UserID)
	if res.Error != nil || !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := m.blacklist(claims); err != nil {
		return nil, errors.Wrap(err, "blacklist rotated token")
	}
	return m.IssuePair(&user)
}

// Revoke blacklists a refresh token (logout).
func (m *Manager) Revoke(refreshToken string) error {
	claims, err := m.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	return m.blacklist(claims)
}

func (m *Manager) blacklist(claims *Claims) error {
	res := m.gdb.Create(&db.BlacklistedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if res.Error != nil {
		// Concurrent blacklisting of the same token is not an error.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil
		}
		return res.Error
	}
	return nil
}

func (m *Manager) isBlacklisted(jti string) (bool, error) {
	var count int64
	res := m.gdb.Model(&db.BlacklistedToken{}).Where("jti = ?", jti).Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

// PurgeExpired drops blacklist rows whose tokens expired anyway.
func (m *Manager) PurgeExpired() error {
	res := m.gdb.Where("expires_at < ?", time.Now()).Delete(&db.BlacklistedToken{})
	return res.Error
}
