package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewIsolatedRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := New(), New()
	a.RecordOperation("AddGroup")
	if got := testutil.ToFloat64(b.OperationsTotal.WithLabelValues("AddGroup")); got != 0 {
		t.Errorf("second instance saw %v operations, want 0", got)
	}
	if got := testutil.ToFloat64(a.OperationsTotal.WithLabelValues("AddGroup")); got != 1 {
		t.Errorf("operations = %v, want 1", got)
	}
}

func TestRecordFlush(t *testing.T) {
	m := New()
	m.RecordFlush(128, nil, time.Millisecond)
	m.RecordFlush(256, errors.New("disk full"), time.Millisecond)

	if got := testutil.ToFloat64(m.SnapshotWrites.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SnapshotWrites.WithLabelValues("error")); got != 1 {
		t.Errorf("error writes = %v, want 1", got)
	}
	// A failed write does not move the size gauge.
	if got := testutil.ToFloat64(m.SnapshotSizeBytes); got != 128 {
		t.Errorf("size = %v, want 128", got)
	}
}

func TestRecordRejection(t *testing.T) {
	m := New()
	m.RecordRejection("AddItemToTemplateSection", "duplicate")
	m.RecordRejection("AddItemToTemplateSection", "duplicate")
	if got := testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("AddItemToTemplateSection", "duplicate")); got != 2 {
		t.Errorf("rejections = %v, want 2", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOperation("x")
	m.RecordRejection("x", "y")
	m.RecordNotFound("x")
	m.RecordFlush(1, nil, 0)
	m.RecordHTTPRequest("/", 200, 0)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 423: "4xx", 500: "5xx"}
	for status, want := range tests {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", status, got, want)
		}
	}
}
