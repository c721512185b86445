package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fxrates/internal/metrics"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates UUID when no request ID provided", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())
			if reqID == "" {
				t.Error("Expected request ID in context, got empty string")
			}
			if _, err := uuid.Parse(reqID); err != nil {
				t.Errorf("Expected valid UUID, got: %s", reqID)
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		respReqID := w.Header().Get(headerRequestID)
		if respReqID == "" {
			t.Error("Expected X-Request-Id in response header")
		}
		if _, err := uuid.Parse(respReqID); err != nil {
			t.Errorf("Expected valid UUID in response header, got: %s", respReqID)
		}
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		providedID := "test-request-id-123"
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())
			if reqID != providedID {
				t.Errorf("Expected request ID %s, got %s", providedID, reqID)
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(headerRequestID, providedID)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		respReqID := w.Header().Get(headerRequestID)
		if respReqID != providedID {
			t.Errorf("Expected X-Request-Id %s in response, got %s", providedID, respReqID)
		}
	})

	t.Run("replaces oversized request ID", func(t *testing.T) {
		handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(headerRequestID, strings.Repeat("x", maxRequestIDLen+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if _, err := uuid.Parse(w.Header().Get(headerRequestID)); err != nil {
			t.Errorf("Expected generated UUID, got: %s", w.Header().Get(headerRequestID))
		}
	})
}

func TestRequestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success logs at info", http.StatusOK, "info"},
		{"client error logs at warn", http.StatusNotFound, "warn"},
		{"server error logs at error", http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			sugar := zap.New(core).Sugar()

			handler := RequestIDMiddleware(RequestLoggingMiddleware(sugar)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("OK"))
			})))

			req := httptest.NewRequest(http.MethodGet, "/test?x=1", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if logs.Len() != 1 {
				t.Fatalf("Expected 1 log entry, got %d", logs.Len())
			}
			entry := logs.All()[0]
			if entry.Level.String() != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, entry.Level)
			}
			fields := entry.ContextMap()
			if fields["path"] != "/test?x=1" {
				t.Errorf("Expected path /test?x=1, got %v", fields["path"])
			}
			if fields["request_id"] == "" {
				t.Error("Expected request_id field")
			}
			if fields["size"] != int64(2) {
				t.Errorf("Expected size 2, got %v", fields["size"])
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWith(reg, reg)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m, "/metrics"))
	r.Get("/api/updates/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/api/updates/a", "/api/updates/b", "/metrics", "/nope"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/updates/{id}", "GET", "4xx")); got != 2 {
		t.Errorf("Expected 2 requests for route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("unmatched", "GET", "4xx")); got != 1 {
		t.Errorf("Expected 1 unmatched request, got %v", got)
	}
	if got := testutil.CollectAndCount(m.HTTPRequestsTotal); got != 2 {
		t.Errorf("Expected 2 label sets, metrics endpoint excluded, got %d", got)
	}
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, status: 0, size: 0}

	rw.WriteHeader(http.StatusCreated)
	if rw.status != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, rw.status)
	}

	data := []byte("test data")
	n, err := rw.Write(data)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}
	if rw.size != len(data) {
		t.Errorf("Expected size %d, got %d", len(data), rw.size)
	}
	if rw.Unwrap() != w {
		t.Error("Expected Unwrap to return the underlying writer")
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rw := wrap(httptest.NewRecorder())
	if rw.Status() != http.StatusOK {
		t.Errorf("Expected default status 200, got %d", rw.Status())
	}
	if wrap(rw) != rw {
		t.Error("Expected wrap to reuse an existing wrapper")
	}
}
