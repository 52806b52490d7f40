package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.ActivityIngested("github")
	m.ActivityIngested("github")
	m.ActivityIngested("")
	m.ActivityCombined("push")
	m.RecordRequest("/v1/customers/:customerId/activities", "POST", 201, 15*time.Millisecond)
	m.RecordError("/v1/customers/:customerId/activities", "POST", "VALIDATION_ERROR")

	if got := testutil.ToFloat64(m.ingested.WithLabelValues("github")); got != 2 {
		t.Fatalf("ingested{github} = %v", got)
	}
	if got := testutil.ToFloat64(m.ingested.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("ingested{unknown} = %v", got)
	}
	if got := testutil.ToFloat64(m.combined.WithLabelValues("push")); got != 1 {
		t.Fatalf("combined{push} = %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/v1/customers/:customerId/activities", "POST", "201")); got != 1 {
		t.Fatalf("requests = %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ActivityIngested("jira")
	m.ActivityCombined("append")
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "INTERNAL_ERROR")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ActivityCombined("page")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `activities_combined_total{rule="page"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
