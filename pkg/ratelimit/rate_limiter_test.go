package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLimiter(t *testing.T) (*RateLimiter, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, &Config{
		Enabled:             true,
		WindowDuration:      time.Minute,
		DefaultRequests:     60,
		PublicRequests:      120,
		ReservationRequests: 2,
		HealthRequests:      300,
		WhitelistedIPs:      []string{"10.0.0.9"},
	})
	rl.now = func() time.Time { return fixedNow }
	return rl, mock
}

func expectWindow(mock redismock.ClientMock, key string, limit int, seq uint64) *redismock.ExpectedCmd {
	member := fmt.Sprintf("%d-%d", fixedNow.UnixMilli(), seq)
	return mock.ExpectEval(slidingWindowScript, []string{key},
		fixedNow.Add(-time.Minute).UnixMilli(),
		fixedNow.UnixMilli(),
		limit,
		60,
		member,
	)
}

func TestIsAllowedAdmitsUnderLimit(t *testing.T) {
	rl, mock := newTestLimiter(t)
	expectWindow(mock, "ticketing:ratelimit:1.2.3.4:reservation", 2, 1).SetVal([]interface{}{int64(1), int64(1)})

	res, err := rl.IsAllowed(context.Background(), "1.2.3.4", RateLimitTypeReservation)

	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 2, res.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsAllowedRejectsAtLimit(t *testing.T) {
	rl, mock := newTestLimiter(t)
	expectWindow(mock, "ticketing:ratelimit:1.2.3.4:reservation", 2, 1).SetVal([]interface{}{int64(0), int64(0)})

	res, err := rl.IsAllowed(context.Background(), "1.2.3.4", RateLimitTypeReservation)

	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestWhitelistedIPSkipsRedis(t *testing.T) {
	rl, mock := newTestLimiter(t)

	res, err := rl.IsAllowed(context.Background(), "10.0.0.9", RateLimitTypePublic)

	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 120, res.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRateLimitType(t *testing.T) {
	assert.Equal(t, RateLimitTypeReservation, getRateLimitType(http.MethodPost, "/api/v1/shows/:id/bookings"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType(http.MethodPost, "/api/v1/shows"))
	assert.Equal(t, RateLimitTypePublic, getRateLimitType(http.MethodGet, "/api/v1/shows/:id"))
	assert.Equal(t, RateLimitTypePublic, getRateLimitType(http.MethodGet, "/api/v1/bookings/:id"))
	assert.Equal(t, RateLimitTypeHealth, getRateLimitType(http.MethodGet, "/health"))
	assert.Equal(t, RateLimitTypeDefault, getRateLimitType(http.MethodGet, "/other"))
}

func TestMiddlewareRespondsTooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, mock := newTestLimiter(t)
	expectWindow(mock, "ticketing:ratelimit:192.0.2.1:reservation", 2, 1).SetVal([]interface{}{int64(0), int64(0)})

	router := gin.New()
	router.Use(Middleware(rl, logger.GetDefault()))
	router.POST("/api/v1/shows/:id/bookings", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shows/abc/bookings", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
}

func TestMiddlewareFailsOpenOnRedisError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, mock := newTestLimiter(t)
	expectWindow(mock, "ticketing:ratelimit:192.0.2.1:public", 120, 1).SetErr(errors.New("connection refused"))

	router := gin.New()
	router.Use(Middleware(rl, logger.GetDefault()))
	router.GET("/api/v1/shows", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shows", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
