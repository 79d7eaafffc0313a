package observability_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rentals/internal/adapters/observability"
	"rentals/internal/app"
)

var _ app.Recorder = observability.LoadRecorder{}

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.LoadRecorder{}.RunFinished(app.StatusApplied)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{"rentals_http_requests_total", "rentals_loader_runs_total"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	observability.MetricsHandler(observability.InitRegistry()).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	return string(body)
}

func TestLoadRecorder(t *testing.T) {
	rec := observability.LoadRecorder{}
	rec.RowDropped("payment", "reservation_not_staged")
	rec.Staged("user", 7)
	rec.StepDone("users", 5, 3*time.Millisecond)

	out := scrape(t)
	for _, want := range []string{
		`rentals_loader_rows_dropped_total{entity="payment",reason="reservation_not_staged"}`,
		`rentals_loader_staged_entities{entity="user"} 7`,
		`rentals_loader_commit_step_seconds_count{step="users"}`,
		`rentals_loader_rows_inserted_total{step="users"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	l := observability.NewLogger("prod", "warn")
	if l.GetLevel().String() != "warn" {
		t.Fatalf("level: %s", l.GetLevel())
	}
	if observability.NewLogger("prod", "bogus").GetLevel().String() != "info" {
		t.Fatalf("unknown level should fall back to info")
	}

	var buf bytes.Buffer
	l = l.Output(&buf)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
