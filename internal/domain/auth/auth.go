package auth

import (
	"context"
	"errors"

	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("Invalid client credentials")
	ErrInvalidToken       = errors.New("Invalid or expired token")
)

type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (r *TokenRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ClientID) {
		errs = append(errs, validator.ValidationError{Field: "client_id", Message: "client_id is required"})
	}
	if validator.IsEmpty(r.ClientSecret) {
		errs = append(errs, validator.ValidationError{Field: "client_secret", Message: "client_secret is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Service interface {
	IssueToken(ctx context.Context, req TokenRequest) (*TokenResponse, error)
}
