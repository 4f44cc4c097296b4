package simdjson

import (
	"log/slog"

	"github.com/biggeezerdevelopment/tapejson/internal/isa"
	"github.com/biggeezerdevelopment/tapejson/internal/jsonerr"
	"github.com/biggeezerdevelopment/tapejson/internal/scanner"
)

const (
	// DefaultMaxDepth is the nesting limit used when none is configured.
	DefaultMaxDepth = 1024

	// DefaultBatchSize is the initial window ParseMany indexes at once.
	DefaultBatchSize = 1 << 20

	// MaxCapacity is the largest input a Parser accepts.
	MaxCapacity = scanner.MaxCapacity
)

// Tier identifies an instruction-set backend family.
type Tier = isa.Tier

const (
	TierAVX512 = isa.TierAVX512
	TierAVX2   = isa.TierAVX2
	TierNEON   = isa.TierNEON
	TierSSE42  = isa.TierSSE42
	TierScalar = isa.TierScalar
)

// ParseTier maps a backend name such as "avx2" to its Tier.
func ParseTier(name string) (Tier, error) {
	t, err := isa.ParseTier(name)
	if err != nil {
		return 0, jsonerr.New("config", -1, ErrInvalidArgument, err.Error())
	}
	return t, nil
}

// Config controls a Parser.
type Config struct {
	// MaxDepth bounds object and array nesting.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
	// Capacity is the input size buffers are allocated for up front. Zero
	// defers allocation to the first parse.
	Capacity int `json:"capacity" yaml:"capacity"`
	// BatchSize is the first window size of ParseMany.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// AutoGrow lets a parse grow buffers for inputs larger than Capacity.
	AutoGrow bool `json:"auto_grow" yaml:"auto_grow"`

	// Implementation pins a backend instead of the dispatcher's choice.
	Implementation Implementation `json:"-" yaml:"-"`
	Logger         *slog.Logger   `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration New uses before options apply.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:  DefaultMaxDepth,
		BatchSize: DefaultBatchSize,
		AutoGrow:  true,
	}
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	cp := *c
	return &cp
}

// Validate rejects settings no parser can run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxDepth <= 0:
		return jsonerr.Newf("config", -1, ErrInvalidArgument, "max depth %d must be positive", c.MaxDepth)
	case c.Capacity < 0:
		return jsonerr.Newf("config", -1, ErrInvalidArgument, "capacity %d must not be negative", c.Capacity)
	case uint64(c.Capacity) > MaxCapacity:
		return jsonerr.Newf("config", -1, ErrAllocation, "capacity %d exceeds the maximum of %d", c.Capacity, uint64(MaxCapacity))
	case c.BatchSize <= 0:
		return jsonerr.Newf("config", -1, ErrInvalidArgument, "batch size %d must be positive", c.BatchSize)
	}
	return nil
}

// Option adjusts a Config.
type Option func(*Config) error

// WithMaxDepth sets the nesting limit.
func WithMaxDepth(depth int) Option {
	return func(c *Config) error {
		c.MaxDepth = depth
		return nil
	}
}

// WithCapacity allocates buffers for inputs of n bytes when the parser is
// created.
func WithCapacity(n int) Option {
	return func(c *Config) error {
		c.Capacity = n
		return nil
	}
}

// WithBatchSize sets the first ParseMany window.
func WithBatchSize(n int) Option {
	return func(c *Config) error {
		c.BatchSize = n
		return nil
	}
}

// WithAutoGrow controls whether inputs larger than the allocated capacity
// grow the buffers or fail with ErrCapacity.
func WithAutoGrow(grow bool) Option {
	return func(c *Config) error {
		c.AutoGrow = grow
		return nil
	}
}

// WithImplementation pins the backend for tier t. It fails with
// ErrUnsupportedTier when the processor lacks it.
func WithImplementation(t Tier) Option {
	return func(c *Config) error {
		impl, err := lookup(t)
		if err != nil {
			return err
		}
		c.Implementation = impl
		return nil
	}
}

// WithLogger sets the logger for this parser only.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}
