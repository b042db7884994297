package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRemoteAddr = "1.2.3.4:1234"

func denyTooMany(c echo.Context, _ string, _ error) error {
	return c.String(http.StatusTooManyRequests, "slow down")
}

func serveLimited(t *testing.T, handler echo.HandlerFunc, remoteAddr string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/timer/custom", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec.Code
}

func TestRateLimiterAllowsRequestsUnderLimit(t *testing.T) {
	mw := newRateLimiter(10, 3, denyTooMany) // 10 req/s, burst 3
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for range 3 {
		assert.Equal(t, http.StatusOK, serveLimited(t, handler, testRemoteAddr))
	}
}

func TestRateLimiterBlocksExcessiveRequests(t *testing.T) {
	mw := newRateLimiter(0.01, 1, denyTooMany) // very low rate, burst 1
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serveLimited(t, handler, testRemoteAddr))
	assert.Equal(t, http.StatusTooManyRequests, serveLimited(t, handler, testRemoteAddr))
}

func TestRateLimiterDifferentIPsAreIndependent(t *testing.T) {
	mw := newRateLimiter(0.01, 1, denyTooMany)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, serveLimited(t, handler, testRemoteAddr))
	assert.Equal(t, http.StatusOK, serveLimited(t, handler, "5.6.7.8:5678"))
	assert.Equal(t, http.StatusTooManyRequests, serveLimited(t, handler, testRemoteAddr))
}
