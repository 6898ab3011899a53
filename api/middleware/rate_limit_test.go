package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (s *fakeRateStore) WindowAllow(_ context.Context, bucket, subject string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := bucket + ":" + subject
	s.counts[k]++
	return s.counts[k] <= limit, s.counts[k], nil
}

func scanRequest(household string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts/scan", nil)
	if household != "" {
		req = req.WithContext(WithHouseholdID(req.Context(), household))
	}
	return req
}

func TestHouseholdRateLimitBlocksOverLimit(t *testing.T) {
	store := newFakeRateStore()
	handler := HouseholdRateLimit(NewRateLimitPolicy("scan", time.Minute, 2), store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, scanRequest("house-a"))
		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("request %d: expected 200 got %d", i, rec.Code)
		case i == 2 && rec.Code != http.StatusTooManyRequests:
			t.Fatalf("expected 429 after limit, got %d", rec.Code)
		case i == 2 && rec.Header().Get("Retry-After") != "60":
			t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, scanRequest("house-b"))
	if rec.Code != http.StatusOK {
		t.Fatalf("other households are not throttled, got %d", rec.Code)
	}
}

func TestHouseholdRateLimitDisabled(t *testing.T) {
	store := newFakeRateStore()
	handler := HouseholdRateLimit(NewRateLimitPolicy("scan", 0, 1), store, nil)(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, scanRequest("house-a"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatal("disabled policy should not touch the store")
	}
}
