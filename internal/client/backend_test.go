package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-relay/internal/config"
	"backend-relay/internal/metrics"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{
			BaseURL:         baseURL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDo_ReadsFullResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"in":true}` {
			t.Errorf("request body = %q, want %q", body, `{"in":true}`)
		}
		if r.Header.Get("X-Test") != "yes" {
			t.Errorf("X-Test = %q, want %q", r.Header.Get("X-Test"), "yes")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"out":true}`))
	}))
	defer upstream.Close()

	c := NewBackendClient(testConfig(upstream.URL), testLogger(), nil)

	header := http.Header{}
	header.Set("X-Test", "yes")

	status, _, body, err := c.Do(context.Background(), http.MethodPost, upstream.URL+"/things", header, []byte(`{"in":true}`))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("status = %d, want %d", status, http.StatusCreated)
	}
	if string(body) != `{"out":true}` {
		t.Errorf("body = %q, want %q", body, `{"out":true}`)
	}
}

func TestDo_EmptyBodySendsNoReader(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) != 0 {
			t.Errorf("request body = %q, want empty", body)
		}
	}))
	defer upstream.Close()

	c := NewBackendClient(testConfig(upstream.URL), testLogger(), nil)
	if _, _, _, err := c.Do(context.Background(), http.MethodGet, upstream.URL, http.Header{}, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestDo_ConnectionError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	c := NewBackendClient(testConfig(upstream.URL), testLogger(), nil)
	_, _, _, err := c.Do(context.Background(), http.MethodGet, upstream.URL, http.Header{}, nil)
	if err == nil {
		t.Fatal("Do() expected error for closed server, got nil")
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer upstream.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewBackendClient(testConfig(upstream.URL), testLogger(), nil)
	_, _, _, err := c.Do(ctx, http.MethodGet, upstream.URL, http.Header{}, nil)
	if err == nil {
		t.Fatal("Do() expected error for canceled context, got nil")
	}
}

func TestDo_RecordsMetrics(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	m := metrics.New()
	c := NewBackendClient(testConfig(upstream.URL), testLogger(), m)
	if _, _, _, err := c.Do(context.Background(), http.MethodGet, upstream.URL, http.Header{}, nil); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "backend_relay_backend_responses_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected backend_relay_backend_responses_total in gathered metrics")
	}
}
