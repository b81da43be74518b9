package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"simdash/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	BaseURL        string
	WsURL          string
	PollInterval   time.Duration
	Ping           time.Duration
	RESTTimeout    time.Duration
	Reconnect      bool
	MaxBackoff     time.Duration
	InitialCash    float64
	BrokerCharges  bool
	MetricsPort    int
	LogLevel       string
	RedrawInterval time.Duration
	TradeRows      int
}

type ConfigFile struct {
	Backend struct {
		BaseURL     string `yaml:"baseURL"`
		WsURL       string `yaml:"wsURL"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"backend"`

	Stream struct {
		PingInterval string `yaml:"pingInterval"`
		Reconnect    *bool  `yaml:"reconnect"`
		MaxBackoff   string `yaml:"maxBackoff"`
	} `yaml:"stream"`

	Session struct {
		InitialCash   float64 `yaml:"initialCash"`
		BrokerCharges bool    `yaml:"brokerCharges"`
		PollInterval  string  `yaml:"pollInterval"`
	} `yaml:"session"`

	Display struct {
		RedrawInterval string `yaml:"redrawInterval"`
		TradeRows      int    `yaml:"tradeRows"`
	} `yaml:"display"`

	System struct {
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads an optional .env file, then the YAML file named by CONFIG_FILE
// when set, falling back to environment variables.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to read .env file: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	reconnect := true
	if config.Stream.Reconnect != nil {
		reconnect = *config.Stream.Reconnect
	}

	settings := Settings{
		BaseURL:        getEnvOrDefault(common.EnvBaseURL, orDefault(config.Backend.BaseURL, common.DefaultBaseURL)),
		WsURL:          getEnvOrDefault(common.EnvWsURL, config.Backend.WsURL),
		PollInterval:   getDurationFromEnvOrConfig(common.EnvPollInterval, config.Session.PollInterval, common.DefaultPollInterval),
		Ping:           getDurationFromEnvOrConfig(common.EnvPingInterval, config.Stream.PingInterval, common.DefaultPingInterval),
		RESTTimeout:    getDurationFromEnvOrConfig(common.EnvRESTTimeout, config.Backend.RESTTimeout, 0),
		Reconnect:      getBoolFromEnvOrConfig(common.EnvReconnect, reconnect),
		MaxBackoff:     getDurationFromEnvOrConfig(common.EnvMaxBackoff, config.Stream.MaxBackoff, common.DefaultMaxBackoff),
		InitialCash:    getFloatFromEnvOrConfig(common.EnvInitialCash, config.Session.InitialCash, common.DefaultInitialCash),
		BrokerCharges:  getBoolFromEnvOrConfig(common.EnvBrokerCharges, config.Session.BrokerCharges),
		MetricsPort:    getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, 0),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
		RedrawInterval: getDurationFromEnvOrConfig(common.EnvRedrawInterval, config.Display.RedrawInterval, common.DefaultRedrawInterval),
		TradeRows:      getIntFromEnvOrConfig(common.EnvTradeRows, config.Display.TradeRows, common.DefaultTradeRows),
	}

	if err := finalize(&settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		BaseURL:        getEnvOrDefault(common.EnvBaseURL, common.DefaultBaseURL),
		WsURL:          os.Getenv(common.EnvWsURL), // optional, derived from BaseURL
		PollInterval:   getDurationOrDefault(common.EnvPollInterval, common.DefaultPollInterval),
		Ping:           getDurationOrDefault(common.EnvPingInterval, common.DefaultPingInterval),
		RESTTimeout:    getDurationOrDefault(common.EnvRESTTimeout, 0),
		Reconnect:      getBoolOrDefault(common.EnvReconnect, true),
		MaxBackoff:     getDurationOrDefault(common.EnvMaxBackoff, common.DefaultMaxBackoff),
		InitialCash:    getFloatOrDefault(common.EnvInitialCash, common.DefaultInitialCash),
		BrokerCharges:  getBoolOrDefault(common.EnvBrokerCharges, false),
		MetricsPort:    getIntOrDefault(common.EnvMetricsPort, 0),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		RedrawInterval: getDurationOrDefault(common.EnvRedrawInterval, common.DefaultRedrawInterval),
		TradeRows:      getIntOrDefault(common.EnvTradeRows, common.DefaultTradeRows),
	}

	if err := finalize(&settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func finalize(settings *Settings) error {
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if settings.WsURL == "" && settings.BaseURL != "" {
		ws, err := StreamURL(settings.BaseURL)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		settings.WsURL = ws
	}
	if err := validateSettings(settings); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// StreamURL derives the push channel address from the backend base URL:
// same host, ws/wss scheme, /ws path.
func StreamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("base URL %q must use http or https", baseURL)
	}
	u.Path = common.PathStream
	u.RawQuery = ""
	return u.String(), nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.BaseURL == "" {
		return errors.New(common.ErrMsgBaseURLRequired)
	}
	if u, err := url.Parse(settings.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", settings.BaseURL)
	}
	if u, err := url.Parse(settings.WsURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("%s, got %q", common.ErrMsgWsURLInvalid, settings.WsURL)
	}

	if settings.PollInterval < common.MinPollInterval || settings.PollInterval > common.MaxPollInterval {
		return fmt.Errorf("poll interval must be between %v and %v, got %v", common.MinPollInterval, common.MaxPollInterval, settings.PollInterval)
	}
	if settings.Ping < time.Second || settings.Ping > 5*time.Minute {
		return fmt.Errorf("ping interval must be between 1s and 5m, got %v", settings.Ping)
	}
	if settings.RESTTimeout < 0 || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 0 (disabled) and 1m, got %v", settings.RESTTimeout)
	}
	if settings.MaxBackoff < time.Second || settings.MaxBackoff > 10*time.Minute {
		return fmt.Errorf("max backoff must be between 1s and 10m, got %v", settings.MaxBackoff)
	}
	if settings.RedrawInterval < common.MinRedrawInterval {
		return fmt.Errorf("redraw interval must be at least %v, got %v", common.MinRedrawInterval, settings.RedrawInterval)
	}

	if settings.InitialCash <= 0 {
		return fmt.Errorf("initial cash must be positive, got %f", settings.InitialCash)
	}
	if settings.MetricsPort != 0 && (settings.MetricsPort < common.MinMetricsPort || settings.MetricsPort > common.MaxMetricsPort) {
		return fmt.Errorf("metrics port must be 0 (disabled) or between %d and %d, got %d", common.MinMetricsPort, common.MaxMetricsPort, settings.MetricsPort)
	}
	if settings.TradeRows <= 0 || settings.TradeRows > common.MaxTradeRows {
		return fmt.Errorf("trade rows must be between 1 and %d, got %d", common.MaxTradeRows, settings.TradeRows)
	}

	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
