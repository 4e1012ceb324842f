package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-predictor/collector"
	"loan-predictor/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLimiter(t *testing.T, capacity int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(capacity, window)
	limiter.now = clock.Now
	t.Cleanup(limiter.Stop)
	return limiter, clock
}

func TestRateLimiter_AllowsCapacityThenRefills(t *testing.T) {
	limiter, clock := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("10.0.0.1")
		assert.True(t, allowed, "request %d", i)
	}

	clock.now = clock.now.Add(20 * time.Second)
	allowed, retryAfter := limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 40*time.Second, retryAfter)

	allowed, _ = limiter.Allow("10.0.0.2")
	assert.True(t, allowed, "clients have separate buckets")

	clock.now = clock.now.Add(40 * time.Second)
	allowed, _ = limiter.Allow("10.0.0.1")
	assert.True(t, allowed)
}

func TestRateLimiter_CleanupForgetsIdleClients(t *testing.T) {
	limiter, clock := newTestLimiter(t, 1, time.Minute)
	limiter.Allow("10.0.0.1")
	clock.now = clock.now.Add(30 * time.Minute)
	limiter.Allow("10.0.0.2")

	clock.now = clock.now.Add(45 * time.Minute)
	limiter.cleanup()

	assert.Equal(t, 1, limiter.clientCount())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	predictor := &stubPredictor{outcome: domain.PredictionOutcome{Label: domain.LabelGood, ConfidencePct: 80}}
	router := newTestRouter(t, predictor, limiter)

	for i := 0; i < 2; i++ {
		w := postForm(router, collector.Values(domain.DefaultLoanApplication()))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postForm(router, collector.Values(domain.DefaultLoanApplication()))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, 2, predictor.calls)

	// Read-only endpoints are not limited.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
