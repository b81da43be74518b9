package surface

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	danger    = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 2).
			Bold(true)

	labelStyle    = lipgloss.NewStyle().Foreground(subtle)
	positiveStyle = lipgloss.NewStyle().Foreground(special).Bold(true)
	negativeStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	disabledStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	enabledStyle  = lipgloss.NewStyle().Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1).
			Width(36)
)

const clearScreen = "\033[H\033[2J"

// Terminal draws a Memory surface as a text dashboard.
type Terminal struct {
	*Memory
	out         io.Writer
	tradeRows   int
	lastVersion uint64
	drawn       bool
}

// NewTerminal returns a terminal view that shows at most tradeRows entries
// of the trade log. The trade log itself is never truncated.
func NewTerminal(out io.Writer, tradeRows int) *Terminal {
	if tradeRows <= 0 {
		tradeRows = 20
	}
	return &Terminal{Memory: NewMemory(), out: out, tradeRows: tradeRows}
}

// Run redraws on every tick until ctx is done.
func (t *Terminal) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.Redraw(); err != nil {
				return err
			}
		}
	}
}

// Redraw writes the view when the surface changed since the last draw.
func (t *Terminal) Redraw() error {
	v := t.Version()
	if t.drawn && v == t.lastVersion {
		return nil
	}
	if _, err := fmt.Fprint(t.out, clearScreen+t.View()+"\n"); err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	t.lastVersion = v
	t.drawn = true
	return nil
}

// View renders the full dashboard.
func (t *Terminal) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		t.field("Date", SlotDate), "  ",
		t.field("Equity", SlotEquity), "  ",
		t.field("Cash", SlotCash), "  ",
		t.field("P&L", SlotPnL), "  ",
		t.field("Return", SlotReturn),
	)

	controls := lipgloss.JoinHorizontal(lipgloss.Top,
		t.control("Start", ControlStart, ""), "  ",
		t.control("Stop", ControlStop, ""), "  ",
		t.control("Strategy", ControlStrategy, t.Value(ControlStrategy)), "  ",
		t.control("Investment", ControlInitialInvestment, t.Value(ControlInitialInvestment)), "  ",
		t.control("Broker charges", ControlBrokerCharges, t.Value(ControlBrokerCharges)),
	)

	lists := lipgloss.JoinHorizontal(lipgloss.Top,
		t.panel("Market Watch", t.Rows(ListMarket), 0),
		t.panel("Positions", t.Rows(ListPositions), 0),
		t.panel("Trade Log", t.Rows(ListTrades), t.tradeRows),
	)

	parts := []string{titleStyle.Render("SIMULATION DASHBOARD"), header, controls}
	if status := t.Text(SlotStatus); status != "" {
		parts = append(parts, styleFor(t.Class(SlotStatus)).Render(status))
	}
	if options := t.Rows(ControlStrategy); len(options) > 0 {
		names := make([]string, 0, len(options))
		for _, o := range options {
			names = append(names, o.Text())
		}
		parts = append(parts, labelStyle.Render("Strategies: ")+strings.Join(names, ", "))
	}
	parts = append(parts, lists)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (t *Terminal) field(label string, id Slot) string {
	text := t.Text(id)
	if text == "" {
		text = "--"
	}
	return labelStyle.Render(label+" ") + styleFor(t.Class(id)).Render(text)
}

func (t *Terminal) control(label string, id Slot, value string) string {
	text := "[" + label + "]"
	if value != "" {
		text = "[" + label + ": " + value + "]"
	}
	if !t.Enabled(id) {
		return disabledStyle.Render(text)
	}
	return enabledStyle.Render(text)
}

func (t *Terminal) panel(title string, rows []Row, limit int) string {
	lines := []string{enabledStyle.Render(title)}
	if len(rows) == 0 {
		lines = append(lines, labelStyle.Render("(empty)"))
	}
	for i, r := range rows {
		if limit > 0 && i >= limit {
			lines = append(lines, labelStyle.Render(fmt.Sprintf("… %d more", len(rows)-limit)))
			break
		}
		cells := make([]string, 0, len(r.Cells))
		for _, c := range r.Cells {
			cells = append(cells, styleFor(c.Class).Render(c.Text))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// styleFor maps a space separated class list onto a terminal style.
func styleFor(class string) lipgloss.Style {
	for _, c := range strings.Fields(class) {
		switch c {
		case "positive", "buy":
			return positiveStyle
		case "negative", "sell":
			return negativeStyle
		}
	}
	return lipgloss.NewStyle()
}
