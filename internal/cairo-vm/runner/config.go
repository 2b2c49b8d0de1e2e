package runner

import "fmt"

// RunMode selects how the program's entry and exit are set up.
type RunMode int

const (
	ModeExecution RunMode = iota
	ModeProof
	ModeProofCairo1
)

// Config carries everything a CairoRunner needs beyond the program itself.
type Config struct {
	// LayoutName selects the builtin set: plain|small|dynamic|all_cairo.
	LayoutName string

	Mode RunMode

	// TraceEnabled turns on trace accumulation; required for WriteTraceFile.
	TraceEnabled bool

	// AllowMissingBuiltins lets a program request builtins the layout does
	// not provide; runners are still instantiated for them.
	AllowMissingBuiltins bool

	// EntrypointOffset overrides the program's main offset when non-nil.
	EntrypointOffset *uint64

	// MaxSteps bounds the run when nonzero, via a step ResourceTracker.
	MaxSteps uint64
}

// DefaultConfig returns the configuration the CLI starts from.
func DefaultConfig() *Config {
	return &Config{
		LayoutName:   "plain",
		Mode:         ModeExecution,
		TraceEnabled: true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := LayoutByName(c.LayoutName); err != nil {
		return err
	}
	switch c.Mode {
	case ModeExecution, ModeProof, ModeProofCairo1:
	default:
		return fmt.Errorf("runner: unknown run mode %d", c.Mode)
	}
	return nil
}

// WithLayout sets the layout name.
func (c *Config) WithLayout(name string) *Config {
	c.LayoutName = name
	return c
}

// WithMode sets the run mode.
func (c *Config) WithMode(mode RunMode) *Config {
	c.Mode = mode
	return c
}

// WithTrace enables or disables trace accumulation.
func (c *Config) WithTrace(enabled bool) *Config {
	c.TraceEnabled = enabled
	return c
}

// WithAllowMissingBuiltins relaxes the layout's builtin set.
func (c *Config) WithAllowMissingBuiltins(allow bool) *Config {
	c.AllowMissingBuiltins = allow
	return c
}

// WithEntrypoint overrides the program's main offset.
func (c *Config) WithEntrypoint(offset uint64) *Config {
	c.EntrypointOffset = &offset
	return c
}

// WithMaxSteps bounds the run to at most n steps.
func (c *Config) WithMaxSteps(n uint64) *Config {
	c.MaxSteps = n
	return c
}
