package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kamigear/teens-points/internal/infra/logging"
)

// MemberClaims is the identity-provider JWT payload the member surface
// accepts. Subject carries the member id; Name is the display name used to
// auto-register a member on first contact.
type MemberClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// AuthManager verifies member JWTs (HS256, shared secret with the identity
// bridge). Verification is fail-closed: any parse or signature error is a
// plain 401 with no detail leaked to the caller.
type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*MemberClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, errors.New("missing token")
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*MemberClaims, error) {
	claims := &MemberClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

type ctxKey string

const ctxDisplayName ctxKey = "display_name"

// memberAuth authenticates member routes. On success the member id and
// display name are attached to the request context.
func (s *Server) memberAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := logging.WithMemberID(r.Context(), claims.Subject)
		if claims.Name != "" {
			ctx = withDisplayName(ctx, claims.Name)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminAuth protects the admin API with a static bearer key.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			writeJSONError(w, http.StatusForbidden, "Forbidden")
			return
		}

		hdr := r.Header.Get("Authorization")
		if hdr == "" {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		parts := strings.Split(hdr, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized: Malformed token")
			return
		}
		if parts[1] != s.adminKey {
			writeJSONError(w, http.StatusForbidden, "Forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func withDisplayName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxDisplayName, name)
}

func displayName(ctx context.Context) string {
	v, _ := ctx.Value(ctxDisplayName).(string)
	return v
}
