// Package render projects simulation snapshots onto a render surface.
//
// Market watch and positions are replaced wholesale on every call, so a
// ticker missing from the latest snapshot disappears from the view. The trade
// log is append-only: every call prepends the snapshot's trades, one by one in
// received order, which leaves the newest trade on top. Rendering the same
// snapshot twice therefore duplicates its trades; callers render each
// snapshot once.
package render

import (
	"sort"
	"strconv"

	"simdash/internal/backend"
	"simdash/internal/money"
	"simdash/internal/surface"

	"github.com/shopspring/decimal"
)

// ChangePlaceholder fills the market-watch change column.
const ChangePlaceholder = "--"

const (
	rowClass   = "list-item"
	tradeClass = "trade-item"
)

// Snapshot renders market watch, positions and the new trades of snap.
func Snapshot(s surface.Surface, snap backend.Snapshot) {
	s.ReplaceList(surface.ListMarket, MarketRows(snap.Prices))
	s.ReplaceList(surface.ListPositions, PositionRows(snap.Positions, snap.Prices))
	for _, t := range snap.Trades {
		s.PrependRow(surface.ListTrades, TradeRow(t))
	}
}

// MarketRows builds one row per quoted ticker in ticker order.
func MarketRows(prices map[string]decimal.Decimal) []surface.Row {
	rows := make([]surface.Row, 0, len(prices))
	for _, ticker := range sortedKeys(prices) {
		rows = append(rows, surface.Row{
			Class: rowClass,
			Cells: []surface.Cell{
				{Text: ticker, Class: "ticker"},
				{Text: money.Price(prices[ticker]), Class: "price"},
				{Text: ChangePlaceholder, Class: "change"},
			},
		})
	}
	return rows
}

// PositionRows builds one row per held ticker in ticker order. A ticker
// without a current price is valued at zero.
func PositionRows(positions map[string]int64, prices map[string]decimal.Decimal) []surface.Row {
	rows := make([]surface.Row, 0, len(positions))
	for _, ticker := range sortedKeys(positions) {
		qty := positions[ticker]
		value := prices[ticker].Mul(decimal.NewFromInt(qty))
		rows = append(rows, surface.Row{
			Class: rowClass,
			Cells: []surface.Cell{
				{Text: ticker, Class: "ticker"},
				{Text: strconv.FormatInt(qty, 10)},
				{Text: money.Format(value), Class: "price"},
			},
		})
	}
	return rows
}

// TradeRow renders one fill as "<date hh:mm> <ACTION> <qty> <ticker> @ <price>".
func TradeRow(t backend.Trade) surface.Row {
	return surface.Row{
		Class: tradeClass,
		Cells: []surface.Cell{
			{Text: Minute(t.Timestamp)},
			{Text: string(t.Action), Class: "trade-action " + t.Action.Class()},
			{Text: strconv.FormatInt(t.Quantity, 10) + " " + t.Ticker + " @ " + money.Plain(t.Price)},
		},
	}
}

// Minute truncates an ISO-8601 timestamp to date, hour and minute.
func Minute(ts string) string {
	const n = len("2006-01-02T15:04")
	if len(ts) <= n {
		return ts
	}
	return ts[:n]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
