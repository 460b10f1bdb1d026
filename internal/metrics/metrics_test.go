package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は名前でメトリクスファミリーを検索する。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を取り出す。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordEventOperation_IncrementsCounterWithLabels は操作と結果のラベル別に加算されることを検証する。
func TestRecordEventOperation_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordEventOperation("create", ResultSuccess)
	c.RecordEventOperation("create", ResultSuccess)
	c.RecordEventOperation("update", ResultNotFound)

	mf := findMetricFamily(t, reg, "guildcal_event_operations_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		op := labelValue(m, "operation")
		result := labelValue(m, "result")
		val := m.GetCounter().GetValue()
		switch {
		case op == "create" && result == ResultSuccess:
			if val != 2 {
				t.Errorf("create/success = %v, want 2", val)
			}
		case op == "update" && result == ResultNotFound:
			if val != 1 {
				t.Errorf("update/not_found = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected label set %s/%s", op, result)
		}
	}
}

// TestRecordStoreLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordStoreLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordStoreLatency("list", 50*time.Millisecond)

	mf := findMetricFamily(t, reg, "guildcal_store_latency_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample_count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() < 0.04 || h.GetSampleSum() > 0.06 {
		t.Errorf("sample_sum = %v, want ~0.05", h.GetSampleSum())
	}
}

// TestSetActiveSessions_SetsGauge はゲージが最新の値で上書きされることを検証する。
func TestSetActiveSessions_SetsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetActiveSessions(5)
	c.SetActiveSessions(3)

	mf := findMetricFamily(t, reg, "guildcal_presence_active_sessions")
	if val := mf.GetMetric()[0].GetGauge().GetValue(); val != 3 {
		t.Errorf("active_sessions = %v, want 3", val)
	}
}

// TestRecordSessionsEvicted_IgnoresZero は0件の削除がカウンタに影響しないことを検証する。
func TestRecordSessionsEvicted_IgnoresZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionsEvicted(2)
	c.RecordSessionsEvicted(0)
	c.RecordSessionsEvicted(1)

	mf := findMetricFamily(t, reg, "guildcal_presence_evicted_total")
	if val := mf.GetMetric()[0].GetCounter().GetValue(); val != 3 {
		t.Errorf("evicted_total = %v, want 3", val)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetricFamily(t, reg, "guildcal_http_requests_total")
	for _, m := range mf.GetMetric() {
		code := labelValue(m, "status_code")
		val := m.GetCounter().GetValue()
		switch code {
		case "200":
			if val != 2 {
				t.Errorf("status 200 count = %v, want 2", val)
			}
		case "404":
			if val != 1 {
				t.Errorf("status 404 count = %v, want 1", val)
			}
		default:
			t.Errorf("unexpected status_code label: %s", code)
		}
	}
}

// TestCollector_ImplementsInterface はCollectorとNopがMetricsCollectorを実装していることを検証する。
func TestCollector_ImplementsInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
	var _ MetricsCollector = Nop{}
}
