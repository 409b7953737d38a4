// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"io"
	"time"
)

// ForkConfig controls whether each trial's property call runs in an
// isolated child process, and how long the parent waits before
// escalating.
type ForkConfig struct {
	// Enable turns on fork mode. When the current process image cannot
	// be located for re-exec, Run reports Code Skip rather than falling
	// back to in-process execution.
	Enable bool

	// Timeout bounds how long the parent waits for a child to report a
	// result before sending the first termination signal. Zero selects
	// DefaultForkTimeout.
	Timeout time.Duration

	// GracePeriod bounds how long the parent waits after the first
	// termination signal before forcibly killing the child. Zero selects
	// DefaultForkGracePeriod.
	GracePeriod time.Duration
}

// DefaultForkTimeout is used when ForkConfig.Timeout is zero.
const DefaultForkTimeout = 2 * time.Second

// DefaultForkGracePeriod is used when ForkConfig.GracePeriod is zero.
const DefaultForkGracePeriod = 500 * time.Millisecond

// Config is the full, explicit description of one run: what to check,
// how to generate arguments for it, and how many trials to spend.
type Config struct {
	// Name labels the property in reports and hook callbacks.
	Name string

	// Property is the invariant under test, built with Prop1 through
	// Prop7. Its arity is fixed by which constructor built it, and zero
	// arity is rejected at validation time.
	Property Property

	// Types supplies one generator per argument, in declaration order.
	// len(Types) must equal Property.Arity.
	Types []Type

	// Trials is the number of trials to run when no failure halts the
	// run early. Zero selects DefaultTrials.
	Trials int

	// Seed fixes the seed of the first trial after AlwaysSeeds. Zero
	// selects a fixed default seed, so the run stays reproducible.
	Seed uint64

	// AlwaysSeeds are tried, in order, before any randomly drawn seed,
	// regardless of Trials — they do not count against the trial budget
	// and always run first.
	AlwaysSeeds []uint64

	// Fork controls worker-process isolation.
	Fork ForkConfig

	// Hooks wires in the ten instrumentation points and the default
	// reporting behavior.
	Hooks Hooks

	// Bloom sizes the deduplication filter. The zero value selects
	// DefaultBloomConfig.
	Bloom BloomConfig

	// Output receives the final pass/fail report. Defaults to os.Stdout.
	Output io.Writer
}

// DefaultTrials is used when Config.Trials is zero.
const DefaultTrials = 100

// Option mutates a Config, in the functional-options idiom, for callers
// who prefer to build one up incrementally rather than write out the
// struct literal.
type Option func(*Config)

// NewConfig builds a Config from a name, property, and generators, then
// applies opts in order.
func NewConfig(name string, property Property, types []Type, opts ...Option) Config {
	cfg := Config{
		Name:     name,
		Property: property,
		Types:    types,
		Trials:   DefaultTrials,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTrials overrides the trial budget.
func WithTrials(n int) Option {
	return func(c *Config) { c.Trials = n }
}

// WithSeed fixes the run's starting seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithAlwaysSeeds prepends seeds that always run before random draws.
func WithAlwaysSeeds(seeds ...uint64) Option {
	return func(c *Config) { c.AlwaysSeeds = append(c.AlwaysSeeds, seeds...) }
}

// WithFork enables worker-process isolation per trial.
func WithFork(fork ForkConfig) Option {
	return func(c *Config) { c.Fork = fork }
}

// WithHooks installs a full Hooks value, replacing any previously set.
func WithHooks(hooks Hooks) Option {
	return func(c *Config) { c.Hooks = hooks }
}

// WithBloom overrides the deduplication filter's sizing.
func WithBloom(bloom BloomConfig) Option {
	return func(c *Config) { c.Bloom = bloom }
}

// WithOutput redirects the final report.
func WithOutput(w io.Writer) Option {
	return func(c *Config) { c.Output = w }
}

func (c Config) validate() error {
	if c.Property.call == nil {
		return ErrNoProperty
	}
	if c.Property.Arity == 0 {
		return ErrZeroArity
	}
	if len(c.Types) != c.Property.Arity {
		return ErrArityMismatch
	}
	if c.Property.Arity > MaxArity {
		return ErrTooManyArgs
	}
	for _, t := range c.Types {
		if err := validateType(t); err != nil {
			return err
		}
	}
	return nil
}
