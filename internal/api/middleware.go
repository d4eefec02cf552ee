package api

import (
	"errors"
	"finai-backend/internal/auth"
	"finai-backend/pkg/httputil"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errNoAuthHeader        = errors.New("authorization header required")
	errMalformedAuthHeader = errors.New("malformed authorization header (expected: Bearer <token>)")
)

// bearerClaims extracts and validates the bearer token of r.
func bearerClaims(r *http.Request, jwtSecret string) (*auth.CustomClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errNoAuthHeader
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errMalformedAuthHeader
	}
	return auth.ParseAccessToken(parts[1], jwtSecret)
}

// --- JWT Middleware ---

// JwtAuthMiddleware verifies the JWT token from the Authorization header.
// If valid, it injects the user's ID and email into the request context.
func JwtAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(r, jwtSecret)
			if err != nil {
				log.Printf("Auth Middleware: %v", err)
				switch {
				case errors.Is(err, errNoAuthHeader):
					httputil.RespondError(w, http.StatusUnauthorized, "Authorization header required")
				case errors.Is(err, errMalformedAuthHeader):
					httputil.RespondError(w, http.StatusUnauthorized, "Malformed Authorization header (Expected: Bearer <token>)")
				case errors.Is(err, jwt.ErrTokenExpired):
					httputil.RespondError(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, jwt.ErrTokenMalformed):
					httputil.RespondError(w, http.StatusUnauthorized, "Malformed token")
				default:
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			ctx := auth.WithIdentity(r.Context(), claims.UserID, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJwtAuthMiddleware attaches the identity when a valid token is present and lets the
// request through anonymously otherwise.
func OptionalJwtAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(r, jwtSecret)
			if err != nil {
				if !errors.Is(err, errNoAuthHeader) {
					log.Printf("WARN: Auth Middleware: ignoring unusable token, continuing anonymously: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), claims.UserID, claims.Email)))
		})
	}
}
