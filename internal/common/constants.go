package common

import "time"

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvBaseURL        = "BASE_URL"
	EnvWsURL          = "WS_URL"
	EnvPollInterval   = "POLL_INTERVAL"
	EnvPingInterval   = "PING_INTERVAL"
	EnvRESTTimeout    = "REST_TIMEOUT"
	EnvReconnect      = "RECONNECT"
	EnvMaxBackoff     = "MAX_BACKOFF"
	EnvInitialCash    = "INITIAL_CASH"
	EnvBrokerCharges  = "BROKER_CHARGES"
	EnvMetricsPort    = "METRICS_PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvRedrawInterval = "REDRAW_INTERVAL"
	EnvTradeRows      = "TRADE_ROWS"
)

// Configuration defaults
const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultPollInterval   = 1 * time.Second
	DefaultPingInterval   = 15 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultInitialCash    = 100000.0
	DefaultLogLevel       = "info"
	DefaultRedrawInterval = 250 * time.Millisecond
	DefaultTradeRows      = 20
)

// Backend routes
const (
	PathStart    = "/api/start"
	PathStop     = "/api/stop"
	PathStrategy = "/api/strategy"
	PathStatus   = "/api/status"
	PathStream   = "/ws"
)

// Push channel message types
const (
	MessageUpdate   = "update"
	MessageFinished = "finished"
)

// Common error messages
const (
	ErrMsgBaseURLRequired = "base URL cannot be empty"
	ErrMsgWsURLInvalid    = "WebSocket URL must use ws:// or wss://"
)

// Validation constants
const (
	MinPollInterval   = 100 * time.Millisecond
	MaxPollInterval   = time.Minute
	MinMetricsPort    = 1024
	MaxMetricsPort    = 65535
	MaxTradeRows      = 1000
	MinRedrawInterval = 10 * time.Millisecond
)
