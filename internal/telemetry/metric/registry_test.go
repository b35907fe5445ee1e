package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.Commits == nil || r.SnapshotsCreated == nil || r.MapReduceInvocations == nil {
		t.Error("expected core metrics to be initialized")
	}
}

func TestRegistryHandlerServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.Commits.Inc()
	r.Commits.Inc()
	r.SnapshotsCreated.Inc()
	r.MapReduceInvocations.Inc()
	r.MapReduceDuration.Observe(0.01)
	r.CodecDecodeFailures.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "mrstate_statemachine_commits_total 2") {
		t.Error("expected mrstate_statemachine_commits_total 2")
	}
	if !strings.Contains(bodyStr, "mrstate_snapshot_created_total 1") {
		t.Error("expected mrstate_snapshot_created_total 1")
	}
	if !strings.Contains(bodyStr, "mrstate_mapreduce_invocations_total 1") {
		t.Error("expected mrstate_mapreduce_invocations_total 1")
	}
	if !strings.Contains(bodyStr, "mrstate_codec_decode_failures_total 1") {
		t.Error("expected mrstate_codec_decode_failures_total 1")
	}
}
