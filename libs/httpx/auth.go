package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/auth"
)

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID    int64
	Role      string
	TokenID   string
	ExpiresAt time.Time
	Token     string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RevocationList reports whether a token id was revoked (logout).
type RevocationList interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

// RequireAuth rejects requests without a valid, unrevoked bearer token. revoked may be nil.
func RequireAuth(v TokenVerifier, revoked RevocationList, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					if logger != nil {
						logger.Error("revocation lookup failed", "err", err)
					}
					WriteError(w, http.StatusServiceUnavailable, "session store unavailable")
					return
				}
				if isRevoked {
					WriteError(w, http.StatusUnauthorized, "token revoked")
					return
				}
			}
			userID, _ := claims.UserID()
			p := Principal{
				UserID:    userID,
				Role:      claims.Role,
				TokenID:   claims.ID,
				ExpiresAt: claims.ExpiresAtTime(),
				Token:     token,
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) Middleware {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if _, ok := allowed[p.Role]; !ok {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
