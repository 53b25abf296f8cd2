package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lostlink/internal"
	"lostlink/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyIdentity contextKey = "identity"

// Identity is the authenticated caller, extracted from the access token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   types.Role
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth verifies the access token and adds the caller identity to the
// request context. The token comes from the Authorization header, or from
// the encrypted cookie set at login for the admin dashboard.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := s.extractAccessToken(r)
		if !ok {
			s.respondErrorStatus(w, http.StatusUnauthorized, "missing access token")
			return
		}

		token, err := s.verifyAccessToken(r.Context(), accessToken)
		if err != nil {
			s.logger.WithError(err).Debug("failed to verify access token")
			s.respondErrorStatus(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		userID, ok := token.Subject()
		if !ok || userID == "" {
			s.respondErrorStatus(w, http.StatusUnauthorized, "no subject in access token")
			return
		}

		identity := Identity{UserID: userID, Role: types.RoleUser}

		var email string
		if err := token.Get("email", &email); err == nil {
			identity.Email = email
		}

		var name string
		if err := token.Get("name", &name); err == nil {
			identity.Name = name
		}

		var role string
		if err := token.Get("role", &role); err == nil && role != "" {
			identity.Role = types.Role(role)
		}

		ctx := context.WithValue(r.Context(), contextKeyIdentity, identity)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the ADMIN role. Must run after RequireAuth.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.identityFromContext(r.Context())
		if err != nil || identity.Role != types.RoleAdmin {
			s.respondError(w, types.ErrUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newPath := strings.TrimSuffix(path, "/")
			newURL := *r.URL
			newURL.Path = newPath

			// Preserve query string
			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractAccessToken pulls the raw token from the Authorization header,
// falling back to the encrypted session cookie.
func (s *Service) extractAccessToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), true
	}

	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return "", false
	}

	var accessToken string
	if err := s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken); err != nil {
		s.logger.WithError(err).Debug("failed to decrypt access token cookie")
		return "", false
	}

	return accessToken, true
}

// verifyAccessToken checks the token against the local signing key, then
// against the campus SSO JWKS when one is configured.
func (s *Service) verifyAccessToken(ctx context.Context, accessToken string) (jwt.Token, error) {
	token, err := parseAccessToken(s.signingKey, []byte(accessToken))
	if err == nil {
		return token, nil
	}

	if s.jwksCache == nil {
		return nil, err
	}

	set, lookupErr := s.jwksCache.Lookup(ctx, s.jwksURL)
	if lookupErr != nil {
		return nil, lookupErr
	}

	return jwt.Parse(
		[]byte(accessToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
}

func (s *Service) identityFromContext(ctx context.Context) (Identity, error) {
	identity, ok := ctx.Value(contextKeyIdentity).(Identity)
	if !ok {
		return Identity{}, types.ErrUnauthorized
	}
	return identity, nil
}
