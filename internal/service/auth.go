package service

import (
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/auth"
	"github.com/soundvault/soundvault-back/internal/config"
	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/seclog"
)

const bcryptCost = 12

// invalidCredentials is returned for unknown identifier, wrong password and
// disabled account alike, so responses cannot be used to enumerate accounts.
const invalidCredentials = "Invalid credentials."

type Auth struct {
	gdb    *gorm.DB
	tokens *auth.Manager
	logger *zap.SugaredLogger
	sec    *seclog.Logger

	minPasswordLength int
}

func NewAuth(cfg *config.Config, gdb *gorm.DB, tokens *auth.Manager, logger *zap.SugaredLogger, sec *seclog.Logger) *Auth {
	return &Auth{
		gdb:               gdb,
		tokens:            tokens,
		logger:            logger,
		sec:               sec,
		minPasswordLength: cfg.PasswordMinLength,
	}
}

func (s *Auth) Register(username, email, password string) (*db.User, *auth.TokenPair, error) {
	if username == "" || email == "" || password == "" {
		return nil, nil, ValidationError("Username, email, and password are required.")
	}
	if err := s.validatePassword(password); err != nil {
		return nil, nil, err
	}

	var count int64
	if res := s.gdb.Model(&db.User{}).Where("username = ?", username).Count(&count); res.Error != nil {
		return nil, nil, res.Error
	}
	if count > 0 {
		return nil, nil, ValidationError("Username already exists.")
	}
	if res := s.gdb.Model(&db.User{}).Where("email = ?", email).Count(&count); res.Error != nil {
		return nil, nil, res.Error
	}
	if count > 0 {
		return nil, nil, ValidationError("Email already exists.")
	}

	hash, err := s.bcryptGen(password)
	if err != nil {
		return nil, nil, errors.Wrap(err, "bcryptGen")
	}

	user := db.User{
		Username: username,
		Email:    email,
		Password: hash,
		IsActive: true,
	}
	if res := s.gdb.Create(&user); res.Error != nil {
		// The unique indexes are the authoritative guard under races.
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, nil, ValidationError("Username or email already exists.")
		}
		return nil, nil, res.Error
	}

	pair, err := s.tokens.IssuePair(&user)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Login accepts a username or an email address; anything with an '@' is
// treated as an email.
func (s *Auth) Login(identifier, password string) (*db.User, *auth.TokenPair, error) {
	if identifier == "" || password == "" {
		return nil, nil, ValidationError("Username/email and password are required.")
	}

	column := "username"
	if strings.Contains(identifier, "@") {
		column = "email"
	}

	user := db.User{}
	res := s.gdb.Where(column+" = ?", identifier).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			s.sec.Warnw("login failed", "reason", "unknown identifier", "identifier", identifier)
			return nil, nil, AuthenticationError(invalidCredentials)
		}
		return nil, nil, res.Error
	}

	if err := s.bcryptCheck(user.Password, password); err != nil {
		s.sec.Warnw("login failed", "reason", "bad password", "user_id", user.ID)
		return nil, nil, AuthenticationError(invalidCredentials)
	}

	if !user.IsActive {
		s.sec.Warnw("login failed", "reason", "inactive account", "user_id", user.ID)
		return nil, nil, AuthenticationError(invalidCredentials)
	}

	now := time.Now()
	if res := s.gdb.Model(&user).Update("last_login", &now); res.Error != nil {
		return nil, nil, errors.Wrap(res.Error, "update last_login")
	}

	pair, err := s.tokens.IssuePair(&user)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Logout blacklists the refresh token so it can no longer be redeemed.
func (s *Auth) Logout(refreshToken string) error {
	if refreshToken == "" {
		return ValidationError("Refresh token is required.")
	}
	if err := s.tokens.Revoke(refreshToken); err != nil {
		return ValidationError("Invalid token.")
	}
	return nil
}

// Refresh rotates a refresh token: the redeemed token is blacklisted and a
// new pair is issued.
func (s *Auth) Refresh(refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, ValidationError("Refresh token is required.")
	}
	pair, err := s.tokens.Rotate(refreshToken)
	if err != nil {
		s.sec.Warnw("refresh rejected", "reason", err.Error())
		return nil, AuthenticationError("Token is invalid or expired.")
	}
	return pair, nil
}

// UserByID resolves an authenticated caller; inactive users do not resolve.
func (s *Auth) UserByID(id uint64) (*db.User, error) {
	user := db.User{}
	res := s.gdb.First(&user, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, AuthenticationError("User not found.")
		}
		return nil, res.Error
	}
	if !user.IsActive {
		return nil, AuthenticationError("User account is disabled.")
	}
	return &user, nil
}

func (s *Auth) validatePassword(password string) error {
	if len(password) < s.minPasswordLength {
		return ValidationError("Password must be at least %d characters long.", s.minPasswordLength)
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return ValidationError("Password cannot be entirely numeric.")
	}
	return nil
}

func (s *Auth) bcryptGen(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(hashed), nil
}

func (s *Auth) bcryptCheck(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
