package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordApplicationSubmitted()
	c.RecordApplicationSubmitted()
	c.RecordApplicationCancelled()
	c.RecordApplicationConflict()

	if v := counterValue(t, reg, "jobcore_applications_submitted_total", nil); v != 2 {
		t.Errorf("submitted_total = %v, want 2", v)
	}
	if v := counterValue(t, reg, "jobcore_applications_cancelled_total", nil); v != 1 {
		t.Errorf("cancelled_total = %v, want 1", v)
	}
	if v := counterValue(t, reg, "jobcore_applications_conflict_total", nil); v != 1 {
		t.Errorf("conflict_total = %v, want 1", v)
	}
}

func TestCollector_LabelledCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSavedJobOp("save")
	c.RecordSavedJobOp("save")
	c.RecordSavedJobOp("unsave")
	c.RecordAuthorizationDenied("guest")

	if v := counterValue(t, reg, "jobcore_saved_job_ops_total", map[string]string{"op": "save"}); v != 2 {
		t.Errorf(`saved_job_ops{op="save"} = %v, want 2`, v)
	}
	if v := counterValue(t, reg, "jobcore_saved_job_ops_total", map[string]string{"op": "unsave"}); v != 1 {
		t.Errorf(`saved_job_ops{op="unsave"} = %v, want 1`, v)
	}
	if v := counterValue(t, reg, "jobcore_authorization_denied_total", map[string]string{"reason": "guest"}); v != 1 {
		t.Errorf(`authorization_denied{reason="guest"} = %v, want 1`, v)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordApplicationSubmitted()
	c.RecordApplyLatency(50 * time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !strings.Contains(string(body), "jobcore_applications_submitted_total 1") {
		t.Errorf("scrape output missing submitted counter:\n%s", body)
	}
	if !strings.Contains(string(body), "jobcore_apply_latency_seconds_count 1") {
		t.Errorf("scrape output missing latency histogram:\n%s", body)
	}
}

func TestNoop_ImplementsRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordApplicationSubmitted()
	r.RecordApplyLatency(time.Second)
	r.RecordSavedJobOp("save")
}
