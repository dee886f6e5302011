package tests

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aventon/internal/service"
)

func TestHTTPRateSource_ExtractsField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fuente":"oficial","nombre":"Oficial","promedio":41.23,"fechaActualizacion":"2026-08-30T10:00:00Z"}`))
	}))
	defer server.Close()

	source := service.NewHTTPRateSource(server.URL, "promedio")
	rate, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 41.23 {
		t.Errorf("expected 41.23, got %v", rate)
	}
}

func TestHTTPRateSource_Failures(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing field", `{"oficial":41.23}`, http.StatusOK},
		{"non-numeric field", `{"promedio":"cuarenta"}`, http.StatusOK},
		{"non-positive rate", `{"promedio":0}`, http.StatusOK},
		{"server error", `{}`, http.StatusInternalServerError},
		{"not json", `<html>offline</html>`, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			source := service.NewHTTPRateSource(server.URL, "promedio")
			if _, err := source.Fetch(context.Background()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// stubRateSource lets tests script successive fetch results.
type stubRateSource struct {
	rate float64
	err  error
}

func (s *stubRateSource) Fetch(ctx context.Context) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.rate, nil
}

func TestExchangeService_RefreshUpdatesSnapshotAndCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &stubRateSource{rate: 39.9}
	store := NewMockRateStore()

	svc := service.NewExchangeService(source, store, 36.5, time.Hour)
	svc.Start(ctx)

	rate, _ := svc.Current()
	if rate != 39.9 {
		t.Errorf("expected fetched rate 39.9, got %v", rate)
	}
	if store.SetCallCount != 1 {
		t.Errorf("expected rate written through to the cache, got %d writes", store.SetCallCount)
	}
}

func TestExchangeService_KeepsFallbackWhenSourceDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &stubRateSource{err: errors.New("connection refused")}

	svc := service.NewExchangeService(source, nil, 36.5, time.Hour)
	svc.Start(ctx)

	rate, _ := svc.Current()
	if rate != 36.5 {
		t.Errorf("expected fallback rate 36.5, got %v", rate)
	}
}

func TestExchangeService_SeedsFromSharedCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Source down, but a previous instance left a rate in the cache.
	source := &stubRateSource{err: errors.New("connection refused")}
	store := NewMockRateStore()
	cachedAt := time.Now().Add(-10 * time.Minute)
	store.Seed(40.15, cachedAt)

	svc := service.NewExchangeService(source, store, 36.5, time.Hour)
	svc.Start(ctx)

	rate, refreshedAt := svc.Current()
	if rate != 40.15 {
		t.Errorf("expected cached rate 40.15, got %v", rate)
	}
	if !refreshedAt.Equal(cachedAt) {
		t.Errorf("expected cached refresh time, got %v", refreshedAt)
	}
}
