package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/auth"
	"github.com/clockwork-hr/attendance-recon-go/internal/handler/http/response"
)

type contextKey string

const clientIDKey contextKey = "client_id"

// ClientID returns the authenticated machine client's id, empty when
// the request skipped AuthRequired.
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// AuthRequired rejects requests without a valid access token and puts
// the calling client's id on the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			if tokenType, ok := claims["type"].(string); !ok || tokenType != "access" {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if clientID, ok := claims["client_id"].(string); ok {
				r = r.WithContext(context.WithValue(r.Context(), clientIDKey, clientID))
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
