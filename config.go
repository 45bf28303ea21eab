package recon

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/recon/internal"
)

// Config is the file form of the root and scheduler settings.
type Config struct {
	// TimeSlice is how long a Loop tick may run before builds yield.
	TimeSlice time.Duration `yaml:"time_slice"`
	// NestedUpdateLimit bounds the commits of a single Flush.
	NestedUpdateLimit int `yaml:"nested_update_limit"`
	// MailboxCapacity sizes the rings carrying work between goroutines.
	MailboxCapacity int `yaml:"mailbox_capacity"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		TimeSlice:         internal.DefaultTimeSlice,
		NestedUpdateLimit: internal.DefaultNestedUpdateLimit,
		MailboxCapacity:   64,
		LogLevel:          "info",
	}
}

// ParseConfig reads a YAML document over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("recon: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("recon: load config: %w", err)
	}
	return ParseConfig(data)
}

func (c Config) Validate() error {
	var errs []error
	if c.TimeSlice <= 0 {
		errs = append(errs, fmt.Errorf("time_slice must be positive, got %s", c.TimeSlice))
	}
	if c.NestedUpdateLimit <= 0 {
		errs = append(errs, fmt.Errorf("nested_update_limit must be positive, got %d", c.NestedUpdateLimit))
	}
	if c.MailboxCapacity <= 0 {
		errs = append(errs, fmt.Errorf("mailbox_capacity must be positive, got %d", c.MailboxCapacity))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("recon: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// NewLoop returns a scheduler using the configured time slice and mailbox size.
func (c Config) NewLoop() *Loop {
	return internal.NewLoop(c.TimeSlice, internal.WithMailboxCapacity(c.MailboxCapacity))
}

// WithConfig applies the root settings of c and logs to stderr at its level.
// Pair it with WithScheduler(c.NewLoop()) to use its time slice.
func WithConfig(c Config) Option {
	return func(o *internal.RootOptions) {
		o.NestedUpdateLimit = c.NestedUpdateLimit
		o.MailboxCapacity = c.MailboxCapacity
		o.Logger = c.Logger(os.Stderr)
	}
}
