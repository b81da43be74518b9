// Package backend talks to the simulation server: JSON commands and status
// over HTTP, and the push channel over WebSocket.
package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"simdash/internal/common"

	"github.com/shopspring/decimal"
)

// Action is a trade side as sent by the server. The label is shown as sent;
// styling uses the lower-cased form.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Class is the lower-cased action used for styling.
func (a Action) Class() string { return strings.ToLower(string(a)) }


type Trade struct {
	Timestamp string          `json:"timestamp"`
	Ticker    string          `json:"ticker"`
	Action    Action          `json:"action"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Snapshot is one simulation tick. Trades holds only the fills of this tick,
// oldest first.
type Snapshot struct {
	Timestamp string                     `json:"timestamp"`
	Equity    decimal.Decimal            `json:"equity"`
	Cash      decimal.NullDecimal        `json:"cash"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Positions map[string]int64           `json:"positions"`
	Trades    []Trade                    `json:"trades"`
}

// ControlStatus is the server's run state as returned by GET /api/status.
type ControlStatus struct {
	IsRunning      bool     `json:"is_running"`
	ActiveStrategy string   `json:"active_strategy"`
	Strategies     []string `json:"strategies,omitempty"`
}

type StartRequest struct {
	InitialCash         float64 `json:"initial_cash"`
	EnableBrokerCharges bool    `json:"enable_broker_charges"`
}

type StrategyRequest struct {
	Name string `json:"name"`
}

// Ack is the free-form acknowledgement returned by command endpoints.
type Ack map[string]any

// Message is a decoded push-channel frame. Snapshot is set for updates only.
type Message struct {
	Type     string
	Snapshot *Snapshot
}

type envelope struct {
	Type string `json:"type"`
}

// DecodeMessage parses a push-channel frame. Frames with an unknown type are
// returned with only Type set so callers can ignore them.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}

	msg := Message{Type: env.Type}
	if env.Type != common.MessageUpdate {
		return msg, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Message{}, fmt.Errorf("decode snapshot: %w", err)
	}
	msg.Snapshot = &snap
	return msg, nil
}
