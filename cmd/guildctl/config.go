package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/guildwire/internal/logging"
	"github.com/google/uuid"
)

const (
	transportTCP       = "tcp"
	transportQUIC      = "quic"
	transportWebSocket = "websocket"
	transportRedis     = "redis"
	transportStdout    = "stdout"
)

var errInvalidConfig = errors.New("guildctl: invalid config")

type appConfig struct {
	Node    string
	Log     logging.Config
	Sink    sinkConfig
	Metrics metricsConfig
}

type sinkConfig struct {
	Transport          string
	Addr               string
	Channel            string
	WriteTimeout       time.Duration
	DialTimeout        time.Duration
	DialAttempts       int
	InsecureSkipVerify bool
	ServerName         string
}

type metricsConfig struct {
	Enabled bool
	Addr    string
}

type fileConfig struct {
	Node string `toml:"node"`
	Log  struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
	} `toml:"log"`
	Sink struct {
		Transport          string `toml:"transport"`
		Addr               string `toml:"addr"`
		Channel            string `toml:"channel"`
		WriteTimeout       string `toml:"write_timeout"`
		DialTimeout        string `toml:"dial_timeout"`
		DialAttempts       int    `toml:"dial_attempts"`
		InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
		ServerName         string `toml:"server_name"`
	} `toml:"sink"`
	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"metrics"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Node: "guildctl-" + uuid.NewString()[:8],
		Log:  logging.DefaultConfig(logging.ProfileRuntime),
		Sink: sinkConfig{
			Transport:    transportStdout,
			Channel:      "guildwire.frames",
			WriteTimeout: 5 * time.Second,
			DialTimeout:  5 * time.Second,
			DialAttempts: 1,
		},
		Metrics: metricsConfig{Addr: "127.0.0.1:9464"},
	}
}

// loadAppConfig overlays the keys present in path onto the defaults. An empty
// path yields the defaults.
func loadAppConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load guildctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return appConfig{}, fmt.Errorf("%w: unknown key %q", errInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("node") {
		if node := strings.TrimSpace(raw.Node); node != "" {
			cfg.Node = node
		}
	}
	if meta.IsDefined("log", "level") {
		lvl, ok := logging.ParseLevel(raw.Log.Level)
		if !ok {
			return appConfig{}, fmt.Errorf("%w: log level %q", errInvalidConfig, raw.Log.Level)
		}
		cfg.Log.Level = lvl
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if meta.IsDefined("sink", "transport") {
		cfg.Sink.Transport = strings.ToLower(strings.TrimSpace(raw.Sink.Transport))
	}
	if meta.IsDefined("sink", "addr") {
		cfg.Sink.Addr = strings.TrimSpace(raw.Sink.Addr)
	}
	if meta.IsDefined("sink", "channel") {
		cfg.Sink.Channel = strings.TrimSpace(raw.Sink.Channel)
	}
	if meta.IsDefined("sink", "write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Sink.WriteTimeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse sink.write_timeout: %w", err)
		}
		cfg.Sink.WriteTimeout = d
	}
	if meta.IsDefined("sink", "dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Sink.DialTimeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse sink.dial_timeout: %w", err)
		}
		cfg.Sink.DialTimeout = d
	}
	if meta.IsDefined("sink", "dial_attempts") {
		cfg.Sink.DialAttempts = raw.Sink.DialAttempts
	}
	if meta.IsDefined("sink", "insecure_skip_verify") {
		cfg.Sink.InsecureSkipVerify = raw.Sink.InsecureSkipVerify
	}
	if meta.IsDefined("sink", "server_name") {
		cfg.Sink.ServerName = strings.TrimSpace(raw.Sink.ServerName)
	}

	if meta.IsDefined("metrics", "enabled") {
		cfg.Metrics.Enabled = raw.Metrics.Enabled
	}
	if meta.IsDefined("metrics", "addr") {
		cfg.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)
	}

	if err := cfg.validate(); err != nil {
		return appConfig{}, err
	}
	return cfg, nil
}

func (c appConfig) validate() error {
	switch c.Sink.Transport {
	case transportStdout:
	case transportTCP, transportQUIC, transportWebSocket:
		if c.Sink.Addr == "" {
			return fmt.Errorf("%w: sink.addr required for %s", errInvalidConfig, c.Sink.Transport)
		}
	case transportRedis:
		if c.Sink.Addr == "" || c.Sink.Channel == "" {
			return fmt.Errorf("%w: sink.addr and sink.channel required for redis", errInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", errInvalidConfig, c.Sink.Transport)
	}
	if c.Sink.WriteTimeout < 0 || c.Sink.DialTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", errInvalidConfig)
	}
	if c.Sink.DialAttempts < 1 {
		return fmt.Errorf("%w: sink.dial_attempts must be at least 1", errInvalidConfig)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr required when metrics are enabled", errInvalidConfig)
	}
	return nil
}
