package service

import (
	"errors"

	"catalogo-bot/pkg/auth"
	"catalogo-bot/pkg/config"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates the administrative user that may trigger a
// keyword cache reload. There is a single admin account, configured with a
// bcrypt password hash.
type AuthService struct {
	cfg        *config.AdminConfig
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthService(cfg *config.AdminConfig, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Login checks the admin credentials and issues an access token.
func (s *AuthService) Login(username, password string) (string, error) {
	if username != s.cfg.Username || !auth.CheckPasswordHash(password, s.cfg.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(username)
	if err != nil {
		return "", err
	}
	s.logger.Info("Admin login", zap.String("username", username))
	return token, nil
}

// TokenDuration exposes the access token lifetime for the login response.
func (s *AuthService) TokenDuration() int64 {
	return int64(s.jwtManager.TokenDuration().Seconds())
}
