package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/watchparty-server/internal/party"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// MaxMessageBytes caps a single inbound websocket frame.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	// InboundRatePerSecond and InboundBurst throttle each connection. Zero disables.
	InboundRatePerSecond float64 `mapstructure:"inbound_rate_per_second" yaml:"inbound_rate_per_second"`
	InboundBurst         int     `mapstructure:"inbound_burst" yaml:"inbound_burst"`

	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// JWT verification is enabled when JWTSecret is set. JWTRequired
	// rejects websocket upgrades that carry no token.
	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTRequired bool   `mapstructure:"jwt_required" yaml:"jwt_required"`

	Party PartyConfig `mapstructure:"party" yaml:"party"`
}

// PartyConfig holds the watch-party limits.
type PartyConfig struct {
	RoomIDLength     int           `mapstructure:"room_id_length" yaml:"room_id_length"`
	MaxRooms         int           `mapstructure:"max_rooms" yaml:"max_rooms"`
	MaxParticipants  int           `mapstructure:"max_participants" yaml:"max_participants"`
	MaxMessages      int           `mapstructure:"max_messages" yaml:"max_messages"`
	MaxMessageLength int           `mapstructure:"max_message_length" yaml:"max_message_length"`
	PlayPauseWindow  time.Duration `mapstructure:"play_pause_window" yaml:"play_pause_window"`
	TimeSyncWindow   time.Duration `mapstructure:"time_sync_window" yaml:"time_sync_window"`
	SweepGrace       time.Duration `mapstructure:"sweep_grace" yaml:"sweep_grace"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	limits := party.DefaultLimits()
	return Config{
		Addr:                 ":8080",
		ReadHeaderTimeout:    5 * time.Second,
		ShutdownTimeout:      5 * time.Second,
		LogLevel:             "info",
		LogFormat:            "console",
		MaxMessageBytes:      64 << 10,
		InboundRatePerSecond: 20,
		InboundBurst:         40,
		CORSOrigins:          []string{"*"},
		Party: PartyConfig{
			RoomIDLength:     limits.RoomIDLength,
			MaxRooms:         limits.MaxRooms,
			MaxParticipants:  limits.MaxParticipants,
			MaxMessages:      limits.MaxMessages,
			MaxMessageLength: limits.MaxMessageLength,
			PlayPauseWindow:  limits.PlayPauseWindow,
			TimeSyncWindow:   limits.TimeSyncWindow,
			SweepGrace:       limits.SweepGrace,
			SweepInterval:    party.DefaultSweepInterval,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
}

// Limits converts the party section into registry limits.
func (p PartyConfig) Limits() party.Limits {
	return party.Limits{
		RoomIDLength:     p.RoomIDLength,
		MaxRooms:         p.MaxRooms,
		MaxParticipants:  p.MaxParticipants,
		MaxMessages:      p.MaxMessages,
		MaxMessageLength: p.MaxMessageLength,
		PlayPauseWindow:  p.PlayPauseWindow,
		TimeSyncWindow:   p.TimeSyncWindow,
		SweepGrace:       p.SweepGrace,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.MaxMessageBytes <= 0 {
		return fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes)
	}
	if c.InboundRatePerSecond < 0 || c.InboundBurst < 0 {
		return fmt.Errorf("inbound rate settings must not be negative")
	}
	if c.InboundRatePerSecond > 0 && c.InboundBurst == 0 {
		return fmt.Errorf("inbound_burst must be positive when inbound_rate_per_second is set")
	}
	if c.JWTRequired && c.JWTSecret == "" {
		return fmt.Errorf("jwt_required needs jwt_secret")
	}
	if c.Party.SweepInterval <= 0 {
		return fmt.Errorf("party.sweep_interval must be positive, got %s", c.Party.SweepInterval)
	}
	if err := c.Party.Limits().Validate(); err != nil {
		return fmt.Errorf("party: %w", err)
	}
	return nil
}
