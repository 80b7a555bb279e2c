package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinica/internal/actor"
	"clinica/pkg/requestcontext"
)

// RequestID tags every request with a correlation id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime captures one instant per request so every derived timestamp in
// the request agrees.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recovery converts panics into 500s instead of dropping the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic in handler",
						"panic", rec, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal error"}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logger emits one access log line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, r)
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(started).Milliseconds(),
				"request_id", requestcontext.RequestID(r.Context()),
			)
		})
	}
}

// TokenValidator rebuilds an ActorContext from a bearer token.
type TokenValidator interface {
	Validate(tokenString string) (*actor.Context, error)
}

type contextKeyActor struct{}

// ContextKeyActor is exported for tests that inject an actor directly.
var ContextKeyActor = contextKeyActor{}

// GetActor retrieves the ActorContext set by RequireActor, or nil.
func GetActor(ctx context.Context) *actor.Context {
	if a, ok := ctx.Value(ContextKeyActor).(*actor.Context); ok {
		return a
	}
	return nil
}

// WithActor injects an actor into the context. Test helper.
func WithActor(ctx context.Context, a *actor.Context) context.Context {
	return context.WithValue(ctx, ContextKeyActor, a)
}

// RequireActor rejects requests without a valid bearer token and stores the
// ActorContext for handlers. The actor's logical time is the request time
// captured by RequestTime, so record timestamps are injectable in tests.
func RequireActor(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				unauthorized(w, r, logger, "missing bearer token")
				return
			}
			act, err := validator.Validate(tokenString)
			if err != nil {
				unauthorized(w, r, logger, "invalid token")
				return
			}
			ctx := r.Context()
			act.LogicalTime = requestcontext.Now(ctx)
			next.ServeHTTP(w, r.WithContext(WithActor(ctx, act)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	logger.WarnContext(r.Context(), "unauthorized request",
		"reason", reason,
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"missing or invalid credentials"}`))
}
