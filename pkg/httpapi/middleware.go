package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
)

type contextKey string

const requestContextKey contextKey = "request_context"

// FromContext returns the authenticated caller placed by Authenticate.
func FromContext(ctx context.Context) (models.RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(models.RequestContext)
	return rc, ok
}

// WithRequestContext injects a caller identity; used by tests.
func WithRequestContext(ctx context.Context, rc models.RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		r.Header.Set("X-Request-ID", reqID)
		w.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(w, r)

		logger.Log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"request_id":  reqID,
			"duration":    time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	})
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Log.WithField("error", err).Error("Panic recovered")
				WriteError(w, http.StatusInternalServerError, "Internal server error.", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Authenticate resolves the bearer token and places the caller identity on
// the request context.
func Authenticate(oidcAuth *OIDCAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "Missing bearer token.", nil)
				return
			}
			if strings.HasPrefix(token, "Bearer ") {
				token = strings.TrimPrefix(token, "Bearer ")
			}

			rc, err := oidcAuth.ValidateToken(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Invalid bearer token.", nil)
				return
			}
			rc.IP = clientIP(r)

			next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), *rc)))
		})
	}
}

// OptionalAuthenticate resolves the caller when a bearer token is present
// but lets anonymous requests through; public reads use it so access
// evaluation can still recognize owners and grantees.
func OptionalAuthenticate(oidcAuth *OIDCAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" || oidcAuth == nil {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(token, "Bearer ") {
				token = strings.TrimPrefix(token, "Bearer ")
			}
			rc, err := oidcAuth.ValidateToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			rc.IP = clientIP(r)
			next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), *rc)))
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
