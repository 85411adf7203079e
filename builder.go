package goATM

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// Builder assembles a Machine. A Builder can be built once.
type Builder struct {
	config    Config
	directory Directory
	logger    *log.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole policy.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithDirectory sets the card lookup collaborator. Required.
func (b *Builder) WithDirectory(d Directory) *Builder {
	b.directory = d
	return b
}

// WithLogger sets the structured logger. Without one the machine logs
// nothing.
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

// WithMaxPINAttempts overrides Security.MaxPINAttempts.
func (b *Builder) WithMaxPINAttempts(n int) *Builder {
	b.config.Security.MaxPINAttempts = n
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the PIN verification histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Machine in StateNoCard.
func (b *Builder) Build() (*Machine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("directory required")
	}

	logger := b.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Machine{
		config:    cfg,
		directory: b.directory,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger,
		state:     StateNoCard,
	}

	b.built = true

	return m, nil
}
