package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Caller is the resolved identity of an authenticated request.
type Caller struct {
	UID   string
	Email string
}

// CallerResolver validates a bearer credential and resolves it to a caller.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, bearerToken string) (Caller, error)
}

type contextKeyCaller struct{}

// WithCaller stores the resolved caller in the request context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, contextKeyCaller{}, caller)
}

// GetCaller retrieves the authenticated caller from the context. The second
// return is false on unauthenticated requests.
func GetCaller(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(contextKeyCaller{}).(Caller)
	return caller, ok
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved caller in the context for handlers downstream.
func RequireAuth(resolver CallerResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "path", r.URL.Path)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			caller, err := resolver.ResolveCaller(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"unauthenticated","message":"` + description + `"}}`))
}
