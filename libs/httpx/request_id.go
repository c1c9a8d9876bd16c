package httpx

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey int

const ctxKeyRequestID ctxKey = iota

const (
	RequestIDHeader = "X-Request-Id"
	maxRequestIDLen = 128
)

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// ContextWithRequestID stores id, replacing an empty or oversized id with a
// fresh one. It returns the id actually stored. The gRPC interceptors share
// it so both transports log the same key.
func ContextWithRequestID(ctx context.Context, id string) (context.Context, string) {
	if id == "" || len(id) > maxRequestIDLen {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, ctxKeyRequestID, id), id
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, id := ContextWithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
