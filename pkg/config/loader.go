package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type options struct {
	files       []string
	optional    bool
	environment map[string]string
	prefix      string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles loads the given dotenv files before parsing. Missing files are
// an error unless WithOptionalEnvFiles is also applied.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
	}
}

// WithOptionalEnvFiles ignores env files that do not exist.
func WithOptionalEnvFiles() Option {
	return func(o *options) {
		o.optional = true
	}
}

// WithEnvironment parses from the given map instead of the process environment.
// Env files are ignored in this mode.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) {
		o.environment = vars
	}
}

// WithPrefix prepends prefix to every variable name looked up.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Load parses environment variables into v.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environment == nil {
		for _, path := range o.files {
			if o.optional {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					continue
				}
			}
			// godotenv.Load never overrides variables that are already set.
			if err := godotenv.Load(path); err != nil {
				return errors.Join(ErrLoadingEnv, fmt.Errorf("%s: %w", path, err))
			}
		}
	}

	parseOpts := env.Options{Prefix: o.prefix}
	if o.environment != nil {
		parseOpts.Environment = o.environment
	}

	if err := env.ParseWithOptions(v, parseOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	return nil
}

// MustLoad is Load that panics on failure.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
