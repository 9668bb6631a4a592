/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package rlqueue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/acronis/go-ratelimitqueue/blockingqueue"
	"github.com/acronis/go-ratelimitqueue/ratelimit"
)

// QueueType represents a type for specifying the ordering discipline of the
// underlying queue.
type QueueType string

// Supported queue types.
const (
	QueueTypeFIFO     QueueType = "fifo"
	QueueTypeLIFO     QueueType = "lifo"
	QueueTypePriority QueueType = "priority"
)

// TimeDuration represents a time duration that can be parsed from JSON, YAML,
// and text. It allows both integers (nanoseconds) and human-readable strings
// (e.g. "1m30s"). This type is intended to be used in configuration structures.
type TimeDuration time.Duration

// UnmarshalText allows decoding from text.
// Implements encoding.TextUnmarshaler interface, which is used by mapstructure.TextUnmarshallerHookFunc.
func (d *TimeDuration) UnmarshalText(text []byte) error {
	dur, err := cast.ToDurationE(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration format (%s): %w", string(text), err)
	}
	*d = TimeDuration(dur)
	return nil
}

// UnmarshalJSON allows decoding from JSON.
// Implements json.Unmarshaler interface.
func (d *TimeDuration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	dur, err := cast.ToDurationE(v)
	if err != nil {
		return fmt.Errorf("invalid duration format (%v): %w", v, err)
	}
	*d = TimeDuration(dur)
	return nil
}

// UnmarshalYAML allows decoding from YAML.
// Implements yaml.Unmarshaler interface.
func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}
	dur, err := cast.ToDurationE(v)
	if err != nil {
		return fmt.Errorf("invalid duration format (%v): %w", v, err)
	}
	*d = TimeDuration(dur)
	return nil
}

// String returns the human-readable string representation.
// Implements fmt.Stringer interface.
func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

// MarshalText encodes as a human-readable string.
// Implements encoding.TextMarshaler interface.
func (d TimeDuration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// QueueConfig describes the underlying blocking queue.
type QueueConfig struct {
	// Type is the ordering discipline, "fifo" by default.
	Type QueueType `mapstructure:"type" yaml:"type" json:"type"`

	// MaxSize limits the number of held items, 0 means unbounded.
	MaxSize int `mapstructure:"maxsize" yaml:"maxsize" json:"maxsize"`
}

// RateLimitConfig describes the retrieval rate limit.
type RateLimitConfig struct {
	// Calls is the number of retrievals allowed per the Per window. Must be >= 1.
	Calls int `mapstructure:"calls" yaml:"calls" json:"calls"`

	// Per is the window duration, e.g. "1s" or "5m".
	Per TimeDuration `mapstructure:"per" yaml:"per" json:"per"`

	// Burst is the number of retrievals allowed in rapid succession after an
	// idle period, 0 means "equal to calls".
	Burst int `mapstructure:"burst" yaml:"burst" json:"burst"`

	// Fuzz is the maximum random extra wait added to otherwise immediate
	// retrievals, 0 disables fuzzing.
	Fuzz TimeDuration `mapstructure:"fuzz" yaml:"fuzz" json:"fuzz"`

	// Algorithm selects the rate limiting algorithm, "sliding_log" by default.
	Algorithm Algorithm `mapstructure:"algorithm" yaml:"algorithm" json:"algorithm"`
}

// Config represents a set of configuration parameters for a rate-limited queue.
type Config struct {
	Queue     QueueConfig     `mapstructure:"queue" yaml:"queue" json:"queue"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit" json:"ratelimit"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Queue.Type {
	case QueueTypeFIFO, QueueTypeLIFO, QueueTypePriority, "":
	default:
		return fmt.Errorf("%w: unknown queue type %q", ratelimit.ErrInvalidConfiguration, c.Queue.Type)
	}
	if c.Queue.MaxSize < 0 {
		return fmt.Errorf("%w: queue max size must not be negative, got %d",
			ratelimit.ErrInvalidConfiguration, c.Queue.MaxSize)
	}
	if c.RateLimit.Calls < 1 {
		return fmt.Errorf("%w: calls must be >= 1, got %d", ratelimit.ErrInvalidConfiguration, c.RateLimit.Calls)
	}
	if c.RateLimit.Per <= 0 {
		return fmt.Errorf("%w: per must be positive, got %s", ratelimit.ErrInvalidConfiguration, c.RateLimit.Per)
	}
	if c.RateLimit.Burst != 0 && c.RateLimit.Burst < c.RateLimit.Calls {
		return fmt.Errorf("%w: burst must be >= calls, got burst %d for calls %d",
			ratelimit.ErrInvalidConfiguration, c.RateLimit.Burst, c.RateLimit.Calls)
	}
	if c.RateLimit.Fuzz < 0 {
		return fmt.Errorf("%w: fuzz must not be negative, got %s", ratelimit.ErrInvalidConfiguration, c.RateLimit.Fuzz)
	}
	switch c.RateLimit.Algorithm {
	case AlgorithmSlidingLog, AlgorithmTokenBucket, AlgorithmLeakyBucket, AlgorithmSlidingWindow, "":
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ratelimit.ErrInvalidConfiguration, c.RateLimit.Algorithm)
	}
	return nil
}

// opts converts the config to queue construction options.
func (c *Config) opts() Opts {
	return Opts{
		Burst:     c.RateLimit.Burst,
		Fuzz:      time.Duration(c.RateLimit.Fuzz),
		Algorithm: c.RateLimit.Algorithm,
	}
}

// LoadConfigFromFile reads a YAML or JSON configuration file (the format is
// detected from the extension) and validates it. Every key may be overridden
// with an environment variable: the key is uppercased, dots are replaced with
// underscores, and the RLQ prefix is added (e.g. RLQ_RATELIMIT_CALLS).
func LoadConfigFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setConfigDefaults(v)
	v.SetEnvPrefix("RLQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("queue.type", string(QueueTypeFIFO))
	v.SetDefault("queue.maxsize", 0)
	v.SetDefault("ratelimit.calls", 1)
	v.SetDefault("ratelimit.per", "1s")
	v.SetDefault("ratelimit.burst", 0)
	v.SetDefault("ratelimit.fuzz", "0s")
	v.SetDefault("ratelimit.algorithm", string(AlgorithmSlidingLog))
}

// NewFromConfig creates a rate-limited FIFO or LIFO queue from the config.
// For QueueTypePriority use NewPriorityFromConfig: the item type differs.
func NewFromConfig[T any](cfg *Config, opts Opts) (*Queue[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	merged := mergeConfigOpts(cfg, opts)
	switch cfg.Queue.Type {
	case QueueTypeLIFO:
		return NewLIFOWithOpts[T](cfg.Queue.MaxSize, cfg.RateLimit.Calls, time.Duration(cfg.RateLimit.Per), merged)
	case QueueTypePriority:
		return nil, fmt.Errorf("%w: use NewPriorityFromConfig for the priority queue type",
			ratelimit.ErrInvalidConfiguration)
	default:
		return NewWithOpts[T](cfg.Queue.MaxSize, cfg.RateLimit.Calls, time.Duration(cfg.RateLimit.Per), merged)
	}
}

// NewPriorityFromConfig creates a rate-limited priority queue from the config.
func NewPriorityFromConfig[T any](cfg *Config, opts Opts) (*Queue[blockingqueue.Prioritized[T]], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Queue.Type != QueueTypePriority {
		return nil, fmt.Errorf("%w: queue type is %q, want %q",
			ratelimit.ErrInvalidConfiguration, cfg.Queue.Type, QueueTypePriority)
	}
	return NewPriorityWithOpts[T](
		cfg.Queue.MaxSize, cfg.RateLimit.Calls, time.Duration(cfg.RateLimit.Per), mergeConfigOpts(cfg, opts))
}

// mergeConfigOpts combines config-borne options with the runtime-only ones
// (logger, metrics) that can't come from a file.
func mergeConfigOpts(cfg *Config, opts Opts) Opts {
	merged := cfg.opts()
	merged.Logger = opts.Logger
	merged.MetricsCollector = opts.MetricsCollector
	return merged
}
