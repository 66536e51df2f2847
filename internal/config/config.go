// Package config loads server settings from a TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Environment overrides
const (
	EnvStorageType = "STORAGE_TYPE"
	EnvRedisURL    = "REDIS_URL"
	EnvAuthSecret  = "DUOPLAY_AUTH_SECRET"
	EnvPort        = "DUOPLAY_PORT"
	EnvLogLevel    = "DUOPLAY_LOG_LEVEL"
)

type Config struct {
	Server  ServerConf
	Auth    AuthConf
	Storage StorageConf
	Rooms   RoomsConf
	Game    GameConf
	Log     LogConf
}

type ServerConf struct {
	Host            string
	Port            int
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`

	// AllowedOrigins restricts websocket upgrades; empty accepts any origin
	AllowedOrigins []string `toml:"allowed_origins"`
}

type AuthConf struct {
	Secret        string
	Issuer        string
	TokenDuration Duration `toml:"token_duration"`
}

type StorageConf struct {
	Type         string
	RedisURL     string   `toml:"redis_url"`
	PoolSize     int      `toml:"pool_size"`
	MinIdleConns int      `toml:"min_idle_conns"`
	PresenceTTL  Duration `toml:"presence_ttl"`
	RoomTTL      Duration `toml:"room_ttl"`

	// MirrorBuffer is the number of read model writes queued before drops
	MirrorBuffer int `toml:"mirror_buffer"`
}

type RoomsConf struct {
	CodeLength   int      `toml:"code_length"`
	CodeAttempts int      `toml:"code_attempts"`
	OfflineGrace Duration `toml:"offline_grace"`
}

type GameConf struct {
	// StartDelay is the fallback before game:start when clients never send game:ready
	StartDelay     Duration `toml:"start_delay"`
	TimedByDefault bool     `toml:"timed_by_default"`
	TurnDuration   Duration `toml:"turn_duration"`
	GracePeriod    Duration `toml:"grace_period"`
	MaxTimeouts    int      `toml:"max_timeouts"`
	MaxChatLength  int      `toml:"max_chat_length"`
}

type LogConf struct {
	// Level is one of debug, info, warn, error
	Level string

	// Path enables rotated file output in addition to stdout
	Path       string
	MaxSize    int  `toml:"max_size"` // megabytes
	MaxBackups int  `toml:"max_backups"`
	MaxAge     int  `toml:"max_age"` // days
	Compress   bool `toml:"compress"`
}

type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	td, err := time.ParseDuration(string(text))
	*d = Duration(td)
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the settings used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConf{
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Auth: AuthConf{
			Issuer:        "duoplay",
			TokenDuration: Duration(24 * time.Hour),
		},
		Storage: StorageConf{
			Type:         StorageTypeMemory,
			RedisURL:     "redis://localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
			PresenceTTL:  Duration(24 * time.Hour),
			RoomTTL:      Duration(24 * time.Hour),
			MirrorBuffer: 256,
		},
		Rooms: RoomsConf{
			CodeLength:   6,
			CodeAttempts: 10,
			OfflineGrace: Duration(10 * time.Minute),
		},
		Game: GameConf{
			StartDelay:    Duration(300 * time.Millisecond),
			TurnDuration:  Duration(60 * time.Second),
			GracePeriod:   Duration(10 * time.Second),
			MaxTimeouts:   3,
			MaxChatLength: 500,
		},
		Log: LogConf{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load reads conffile over the defaults, then applies the environment.
// An empty conffile uses the defaults and environment only.
func Load(conffile string) (*Config, error) {
	c := Default()

	if conffile != "" {
		confBytes, err := os.ReadFile(conffile)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(confBytes, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", conffile, err)
		}
	}

	if err := c.applyEnvVar(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnvVar() error {
	if v := os.Getenv(EnvStorageType); v != "" {
		c.Storage.Type = strings.ToLower(v)
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv(EnvAuthSecret); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the settings that have no safe fallback
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url required when storage type is %s", StorageTypeRedis)
		}
	default:
		return fmt.Errorf("invalid storage type %q: must be %q or %q", c.Storage.Type, StorageTypeMemory, StorageTypeRedis)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret required: set auth.secret or %s", EnvAuthSecret)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
