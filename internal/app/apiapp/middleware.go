package apiapp

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/guard"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	"github.com/sickboy81/saphira/internal/session"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

const apiPrefix = "/v1"

func ApplyMiddlewares(r chiRouter, log *zap.Logger) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(log))
}

// SessionMiddleware resolves the caller's session and role once per request.
// A missing or invalid token yields an anonymous snapshot; the route decides
// whether that is acceptable.
func SessionMiddleware(authService *authsvc.Service, lookupTimeout time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	if lookupTimeout <= 0 {
		lookupTimeout = 3 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok || authService == nil {
				next.ServeHTTP(w, r.WithContext(session.WithSnapshot(r.Context(), session.Snapshot{})))
				return
			}

			provider := newRequestProvider(authService, accessToken)
			sc := session.New(provider, log)

			initCtx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
			sc.Init(initCtx)
			cancel()
			snap := sc.Snapshot()
			sc.Close()

			ctx := session.WithSnapshot(r.Context(), snap)
			if identity, ok := provider.identity(); ok && snap.Session != nil {
				ctx = authsvc.WithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
			httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{
				Code:     "UNAUTHORIZED",
				Message:  "authentication required",
				Redirect: guard.LoginPath,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GuardMiddleware applies the guarded route table to API paths.
func GuardMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := guard.Lookup(strings.TrimPrefix(r.URL.Path, apiPrefix))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			snap := session.SnapshotFromContext(r.Context())
			verdict := guard.Classify(snap.GuardInput(), rule.Allow)
			switch verdict.Decision {
			case guard.Authorized:
				next.ServeHTTP(w, r)
			case guard.Loading:
				httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
					Code:    "ROLE_UNRESOLVED",
					Message: "role could not be resolved, try again",
				})
			default:
				if log != nil {
					log.Debug("guard rejected request",
						zap.String("path", r.URL.Path),
						zap.String("user_id", snap.UserID()),
						zap.String("redirect", verdict.Redirect),
					)
				}
				status, code := http.StatusForbidden, "FORBIDDEN"
				if verdict.Redirect == guard.LoginPath {
					status, code = http.StatusUnauthorized, "UNAUTHORIZED"
				}
				httperrors.Write(w, status, httperrors.APIError{
					Code:     code,
					Message:  "access denied",
					Redirect: verdict.Redirect,
				})
			}
		})
	}
}

func extractBearerToken(value string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
