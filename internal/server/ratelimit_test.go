package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RateLimit(zap.NewNop(), rate.NewLimiter(rate.Every(time.Hour), 2), next)

	expected := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i, status := range expected {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
		if rr.Code != status {
			t.Fatalf("request %d: status = %d, expected %d", i+1, rr.Code, status)
		}
	}
}

func TestRateLimitDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RateLimit(nil, nil, next)

	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, expected %d", i+1, rr.Code, http.StatusNoContent)
		}
	}
}
