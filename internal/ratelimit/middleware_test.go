package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func serveTwice(t *testing.T, h Handler) (*httptest.ResponseRecorder, *httptest.ResponseRecorder) {
	t.Helper()
	counted := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", nil)
	first := httptest.NewRecorder()
	counted.ServeHTTP(first, req.Clone(req.Context()))
	second := httptest.NewRecorder()
	counted.ServeHTTP(second, req.Clone(req.Context()))
	return first, second
}

func TestMiddlewareEnforcesLimitWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	lim, err := New(client, "1-M")
	require.NoError(t, err)

	first, second := serveTwice(t, Handler{Limiter: lim, Key: func(*http.Request) string { return "static" }})
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMiddlewareMemoryStoreKeysByIP(t *testing.T) {
	lim, err := New(nil, "1-H")
	require.NoError(t, err)

	first, second := serveTwice(t, Handler{Limiter: lim})
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestNewRejectsBadRate(t *testing.T) {
	_, err := New(nil, "lots")
	require.Error(t, err)
}

func TestNilLimiterPassesThrough(t *testing.T) {
	first, second := serveTwice(t, Handler{})
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
}
