package metrics

// Wrapper adapts Metrics to the small interfaces the dashboard components
// report into, so those packages do not import Prometheus.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// Push channel

func (w *Wrapper) SnapshotsInc()        { w.m.SnapshotsReceived.Inc() }
func (w *Wrapper) MessagesIgnoredInc()  { w.m.MessagesIgnored.Inc() }
func (w *Wrapper) WSReconnectsInc()     { w.m.WSReconnects.Inc() }
func (w *Wrapper) WSStateSet(v float64) { w.m.WSState.Set(v) }

func (w *Wrapper) TradesRenderedAdd(n int) {
	if n > 0 {
		w.m.TradesRendered.Add(float64(n))
	}
}

func (w *Wrapper) AccountSet(equity, pnl, returnPct float64) {
	w.m.Equity.Set(equity)
	w.m.PnLTotal.Set(pnl)
	w.m.ReturnPct.Set(returnPct)
}

func (w *Wrapper) UpdatePositions(positions map[string]float64) {
	w.m.UpdatePositions(positions)
}

// Control

func (w *Wrapper) StatusPollsInc()        { w.m.StatusPolls.Inc() }
func (w *Wrapper) StatusPollFailuresInc() { w.m.StatusPollFailures.Inc() }

func (w *Wrapper) CommandsInc(command string) {
	w.m.Commands.WithLabelValues(command).Inc()
}

func (w *Wrapper) CommandFailuresInc(command string) {
	w.m.CommandFailures.WithLabelValues(command).Inc()
}

// System

func (w *Wrapper) ErrorsInc() { w.m.ErrorsTotal.Inc() }
