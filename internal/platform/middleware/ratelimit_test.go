package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/amora-app/backend/internal/platform/respond"
)

func setupRateLimited(rps float64, burst int) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = respond.NewHTTPErrorHandler()
	e.Use(RateLimit(rps, burst))
	e.GET("/ping", func(c *echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func pingFrom(e *echo.Echo, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	e := setupRateLimited(1, 2)

	for i := range 2 {
		if rec := pingFrom(e, "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimit_RejectsBeyondBurst(t *testing.T) {
	e := setupRateLimited(1, 2)

	pingFrom(e, "10.0.0.1:1234")
	pingFrom(e, "10.0.0.1:1234")

	rec := pingFrom(e, "10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if retry := rec.Header().Get("Retry-After"); retry != "1" {
		t.Errorf("Retry-After = %q, want 1", retry)
	}

	var problem respond.ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("problem status = %d, want 429", problem.Status)
	}
}

func TestRateLimit_IsolatesClients(t *testing.T) {
	e := setupRateLimited(1, 1)

	if rec := pingFrom(e, "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("client A: expected 200, got %d", rec.Code)
	}
	if rec := pingFrom(e, "10.0.0.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("client A second request: expected 429, got %d", rec.Code)
	}

	// A different client has its own bucket.
	if rec := pingFrom(e, "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("client B: expected 200, got %d", rec.Code)
	}
}
