package render

import (
	"testing"

	"simdash/internal/backend"
	"simdash/internal/surface"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func texts(rows []surface.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text()
	}
	return out
}

func sampleSnapshot() backend.Snapshot {
	return backend.Snapshot{
		Timestamp: "2024-01-01T10:30:00",
		Equity:    price("105000"),
		Prices:    map[string]decimal.Decimal{"AAPL": price("150.00")},
		Positions: map[string]int64{"AAPL": 10},
		Trades: []backend.Trade{
			{Timestamp: "2024-01-01T10:30:00", Ticker: "AAPL", Action: backend.Buy, Quantity: 10, Price: price("150.00")},
		},
	}
}

func TestSnapshot_Rows(t *testing.T) {
	s := surface.NewMemory()
	Snapshot(s, sampleSnapshot())

	assert.Equal(t, []string{"AAPL $150.00 --"}, texts(s.Rows(surface.ListMarket)))
	assert.Equal(t, []string{"AAPL 10 $1,500.00"}, texts(s.Rows(surface.ListPositions)))
	assert.Equal(t, []string{"2024-01-01T10:30 BUY 10 AAPL @ 150.00"}, texts(s.Rows(surface.ListTrades)))

	trade := s.Rows(surface.ListTrades)[0]
	assert.Equal(t, "trade-item", trade.Class)
	assert.Equal(t, "trade-action buy", trade.Cells[1].Class)
}

func TestSnapshot_ReplacesListsButAppendsTrades(t *testing.T) {
	s := surface.NewMemory()
	snap := sampleSnapshot()

	Snapshot(s, snap)
	market := s.Rows(surface.ListMarket)
	positions := s.Rows(surface.ListPositions)

	Snapshot(s, snap)
	assert.Equal(t, market, s.Rows(surface.ListMarket), "market watch is a full replace")
	assert.Equal(t, positions, s.Rows(surface.ListPositions), "positions are a full replace")
	assert.Equal(t, 2, s.Len(surface.ListTrades), "trades are appended per call")
}

func TestSnapshot_DropsVanishedTickers(t *testing.T) {
	s := surface.NewMemory()
	Snapshot(s, backend.Snapshot{
		Prices:    map[string]decimal.Decimal{"AAPL": price("150"), "MSFT": price("400")},
		Positions: map[string]int64{"AAPL": 1, "MSFT": 2},
	})
	require.Equal(t, 2, s.Len(surface.ListMarket))

	Snapshot(s, backend.Snapshot{
		Prices:    map[string]decimal.Decimal{"MSFT": price("401")},
		Positions: map[string]int64{},
	})
	assert.Equal(t, []string{"MSFT $401.00 --"}, texts(s.Rows(surface.ListMarket)))
	assert.Equal(t, 0, s.Len(surface.ListPositions))
}

func TestSnapshot_EmptyState(t *testing.T) {
	s := surface.NewMemory()
	s.ReplaceList(surface.ListMarket, []surface.Row{{Cells: []surface.Cell{{Text: "stale"}}}})

	assert.NotPanics(t, func() {
		Snapshot(s, backend.Snapshot{Prices: map[string]decimal.Decimal{}, Positions: map[string]int64{}})
	})
	assert.Equal(t, 0, s.Len(surface.ListMarket))
	assert.Equal(t, 0, s.Len(surface.ListPositions))
	assert.Equal(t, 0, s.Len(surface.ListTrades))

	assert.NotPanics(t, func() { Snapshot(s, backend.Snapshot{}) }, "nil maps render as empty lists")
}

func TestSnapshot_TradeOrderNewestFirst(t *testing.T) {
	s := surface.NewMemory()
	Snapshot(s, backend.Snapshot{Trades: []backend.Trade{
		{Timestamp: "2024-01-01T10:00:00", Ticker: "AAPL", Action: "BUY", Quantity: 1, Price: price("1")},
		{Timestamp: "2024-01-01T11:00:00", Ticker: "MSFT", Action: "SELL", Quantity: 2, Price: price("2")},
	}})
	Snapshot(s, backend.Snapshot{Trades: []backend.Trade{
		{Timestamp: "2024-01-01T12:00:00", Ticker: "TSLA", Action: "buy", Quantity: 3, Price: price("3.456")},
	}})

	assert.Equal(t, []string{
		"2024-01-01T12:00 buy 3 TSLA @ 3.46",
		"2024-01-01T11:00 SELL 2 MSFT @ 2.00",
		"2024-01-01T10:00 BUY 1 AAPL @ 1.00",
	}, texts(s.Rows(surface.ListTrades)))
	assert.Equal(t, "trade-action buy", s.Rows(surface.ListTrades)[0].Cells[1].Class, "class is lower-cased, label kept")
}

func TestMarketRows_SortedByTicker(t *testing.T) {
	rows := MarketRows(map[string]decimal.Decimal{"TSLA": price("1"), "AAPL": price("2"), "MSFT": price("3")})
	assert.Equal(t, []string{"AAPL $2.00 --", "MSFT $3.00 --", "TSLA $1.00 --"}, texts(rows))
}

func TestPositionRows(t *testing.T) {
	rows := PositionRows(
		map[string]int64{"AAPL": 10, "GONE": 5, "TSLA": -3},
		map[string]decimal.Decimal{"AAPL": price("150"), "TSLA": price("200.5")},
	)
	assert.Equal(t, []string{
		"AAPL 10 $1,500.00",
		"GONE 5 $0.00",
		"TSLA -3 -$601.50",
	}, texts(rows))
}

func TestMinute(t *testing.T) {
	assert.Equal(t, "2024-01-01T10:30", Minute("2024-01-01T10:30:00"))
	assert.Equal(t, "2024-01-01 10:30", Minute("2024-01-01 10:30:00-05:00"))
	assert.Equal(t, "2024-01-01", Minute("2024-01-01"))
	assert.Equal(t, "", Minute(""))
}
