// Package surface defines the render-surface capability the dashboard draws
// on, together with an in-memory implementation and a terminal view.
//
// Components address named slots. A slot holds text, a style class, a value
// (for selectors and inputs), an enabled flag, and an ordered list of rows.
// Implementations must be safe for concurrent use: the live channel, the
// status poller and operator commands write to the surface from separate
// goroutines, each touching its own slots.
package surface

// Slot names a region or control on the surface.
type Slot string

const (
	SlotDate   Slot = "current-date"
	SlotEquity Slot = "equity"
	SlotCash   Slot = "cash"
	SlotPnL    Slot = "pnl"
	SlotReturn Slot = "return"
	SlotStatus Slot = "status"

	ListMarket    Slot = "market-list"
	ListPositions Slot = "positions-list"
	ListTrades    Slot = "trade-log"

	ControlStrategy          Slot = "strategy-select"
	ControlInitialInvestment Slot = "initial-investment"
	ControlBrokerCharges     Slot = "broker-charges"
	ControlStart             Slot = "btn-start"
	ControlStop              Slot = "btn-stop"
)

// Cell is one styled span inside a row.
type Cell struct {
	Text  string
	Class string
}

// Row is one entry of a list slot.
type Row struct {
	Class string
	Cells []Cell
}

// Text joins the cell texts with single spaces.
func (r Row) Text() string {
	var out []byte
	for i, c := range r.Cells {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, c.Text...)
	}
	return string(out)
}

// Surface is the capability consumed by the renderer, the live channel, the
// status poller and the session controller.
type Surface interface {
	SetText(id Slot, text string)
	SetClass(id Slot, class string)
	SetValue(id Slot, value string)
	SetEnabled(id Slot, enabled bool)
	// Enabled reports whether a control currently accepts input. Controls
	// never touched are enabled.
	Enabled(id Slot) bool
	ReplaceList(id Slot, rows []Row)
	PrependRow(id Slot, row Row)
}
