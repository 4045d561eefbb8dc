package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Ingested.WithLabelValues("push").Inc()
	m.Ingested.WithLabelValues("push").Inc()
	m.Dropped.WithLabelValues(ReasonInactiveSource).Inc()

	if got := testutil.ToFloat64(m.Ingested.WithLabelValues("push")); got != 2 {
		t.Errorf("ingested: got %f, want 2", got)
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues(ReasonInactiveSource)); got != 1 {
		t.Errorf("dropped: got %f, want 1", got)
	}
}

func TestRouter(t *testing.T) {
	m := New()
	m.BufferLength.Set(17)
	srv := httptest.NewServer(m.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "homedash_chart_points 17") {
		t.Errorf("metrics body missing gauge:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status=%d", resp.StatusCode)
	}
}
