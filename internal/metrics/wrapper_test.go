package metrics

import (
	"testing"

	"simdash/internal/backend"
	"simdash/internal/live"
	"simdash/internal/poller"
	"simdash/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ live.Metrics          = (*Wrapper)(nil)
	_ poller.Metrics        = (*Wrapper)(nil)
	_ session.Metrics       = (*Wrapper)(nil)
	_ backend.StreamMetrics = (*Wrapper)(nil)
)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestWrapper_PushChannelCounters(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	if v := testutil.ToFloat64(metrics.SnapshotsReceived); v != 0 {
		t.Errorf("Expected initial counter value 0, got %f", v)
	}

	wrapper.SnapshotsInc()
	wrapper.SnapshotsInc()
	if v := testutil.ToFloat64(metrics.SnapshotsReceived); v != 2 {
		t.Errorf("Expected 2 snapshots, got %f", v)
	}

	wrapper.TradesRenderedAdd(3)
	wrapper.TradesRenderedAdd(0)
	if v := testutil.ToFloat64(metrics.TradesRendered); v != 3 {
		t.Errorf("Expected 3 trades, got %f", v)
	}

	wrapper.MessagesIgnoredInc()
	if v := testutil.ToFloat64(metrics.MessagesIgnored); v != 1 {
		t.Errorf("Expected 1 ignored message, got %f", v)
	}

	wrapper.WSReconnectsInc()
	wrapper.WSStateSet(float64(backend.StateOpen))
	if v := testutil.ToFloat64(metrics.WSReconnects); v != 1 {
		t.Errorf("Expected 1 reconnect, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.WSState); v != float64(backend.StateOpen) {
		t.Errorf("Expected ws_state %f, got %f", float64(backend.StateOpen), v)
	}
}

func TestWrapper_AccountGauges(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.AccountSet(105000, 5000, 5)
	if v := testutil.ToFloat64(metrics.Equity); v != 105000 {
		t.Errorf("Expected equity 105000, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PnLTotal); v != 5000 {
		t.Errorf("Expected pnl 5000, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ReturnPct); v != 5 {
		t.Errorf("Expected return 5, got %f", v)
	}

	wrapper.AccountSet(90000, -10000, -10)
	if v := testutil.ToFloat64(metrics.PnLTotal); v != -10000 {
		t.Errorf("Expected pnl -10000, got %f", v)
	}
}

func TestWrapper_UpdatePositions(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	positions := map[string]float64{
		"AAPL": 10,
		"MSFT": -5,
		"TSLA": 0,
	}
	wrapper.UpdatePositions(positions)

	if v := testutil.ToFloat64(metrics.ActivePositions); v != 2 {
		t.Errorf("Expected 2 active positions, got %f", v)
	}

	wrapper.UpdatePositions(map[string]float64{})
	if v := testutil.ToFloat64(metrics.ActivePositions); v != 0 {
		t.Errorf("Expected 0 active positions, got %f", v)
	}
}

func TestWrapper_ControlCounters(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.StatusPollsInc()
	wrapper.StatusPollsInc()
	wrapper.StatusPollFailuresInc()
	if v := testutil.ToFloat64(metrics.StatusPolls); v != 2 {
		t.Errorf("Expected 2 polls, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.StatusPollFailures); v != 1 {
		t.Errorf("Expected 1 poll failure, got %f", v)
	}

	wrapper.CommandsInc("start")
	wrapper.CommandsInc("start")
	wrapper.CommandsInc("stop")
	wrapper.CommandFailuresInc("stop")
	if v := testutil.ToFloat64(metrics.Commands.WithLabelValues("start")); v != 2 {
		t.Errorf("Expected 2 start commands, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.Commands.WithLabelValues("stop")); v != 1 {
		t.Errorf("Expected 1 stop command, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.CommandFailures.WithLabelValues("stop")); v != 1 {
		t.Errorf("Expected 1 stop failure, got %f", v)
	}

	wrapper.ErrorsInc()
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 1 {
		t.Errorf("Expected 1 error, got %f", v)
	}
}

func TestNewWithRegistry_RegistersAll(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	metrics.Commands.WithLabelValues("start")
	metrics.CommandFailures.WithLabelValues("start")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 14 {
		t.Errorf("Expected 14 metric families, got %d", len(families))
	}
}
