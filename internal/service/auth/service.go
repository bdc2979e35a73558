package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clockwork-hr/attendance-recon-go/internal/config"
	"github.com/clockwork-hr/attendance-recon-go/internal/domain/auth"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/jwt"
)

type AuthServiceImpl struct {
	accounts map[string]string
	jwt      jwt.Service
	log      *slog.Logger
}

func NewAuthService(clients []config.ServiceAccount, jwtService jwt.Service, log *slog.Logger) auth.Service {
	accounts := make(map[string]string, len(clients))
	for _, c := range clients {
		accounts[c.ID] = c.SecretHash
	}
	return &AuthServiceImpl{
		accounts: accounts,
		jwt:      jwtService,
		log:      log,
	}
}

// IssueToken implements auth.Service. An unknown client id still runs
// a bcrypt compare so both failure paths cost the same.
func (s *AuthServiceImpl) IssueToken(_ context.Context, req auth.TokenRequest) (*auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, ok := s.accounts[req.ClientID]
	if !ok {
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uIUvGFcXUqfY3yE0rpK3PQ7JXnulLJW6"), []byte(req.ClientSecret))
		s.log.Warn("token request for unknown client", "client_id", req.ClientID)
		return nil, auth.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.ClientSecret)); err != nil {
		s.log.Warn("token request with bad secret", "client_id", req.ClientID)
		return nil, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(req.ClientID)
	if err != nil {
		return nil, err
	}

	return &auth.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt - time.Now().Unix(),
	}, nil
}
