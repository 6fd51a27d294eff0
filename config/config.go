// Package config holds the tunables of the sharedstate scenarios. Values
// come from defaults, then an optional HCL file, then key=value overrides.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the resolved scenario configuration.
type Config struct {
	// Workers is the number of pool goroutines driving each scenario.
	Workers int `mapstructure:"workers"`
	// Items is how many increments, adds or inserts each scenario performs.
	Items int `mapstructure:"items"`
	// Readers is the number of concurrent readers in repository scenarios.
	Readers int `mapstructure:"readers"`
	// Floor, when set, is the lowest value a counter may be decremented to.
	Floor *int64 `mapstructure:"floor"`
	// LockTimeout bounds repository write-lock waits. Zero waits forever.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	floor := int64(0)
	return Config{
		Workers:     8,
		Items:       10000,
		Readers:     4,
		Floor:       &floor,
		LockTimeout: time.Second,
	}
}

// file mirrors Config in the shape HCL decodes. Every attribute is optional
// and durations are written as strings ("250ms").
type file struct {
	Workers     *int    `hcl:"workers,optional"`
	Items       *int    `hcl:"items,optional"`
	Readers     *int    `hcl:"readers,optional"`
	Floor       *int64  `hcl:"floor,optional"`
	LockTimeout *string `hcl:"lock_timeout,optional"`
}

// LoadFile reads an HCL file and applies its attributes on top of base.
//
//	workers      = 16
//	items        = 10000
//	floor        = 0
//	lock_timeout = "250ms"
func LoadFile(path string, base Config) (Config, error) {
	var f file
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return base, fmt.Errorf("loading %s: %w", path, err)
	}

	cfg := base
	if f.Workers != nil {
		cfg.Workers = *f.Workers
	}
	if f.Items != nil {
		cfg.Items = *f.Items
	}
	if f.Readers != nil {
		cfg.Readers = *f.Readers
	}
	if f.Floor != nil {
		cfg.Floor = f.Floor
	}
	if f.LockTimeout != nil {
		d, err := time.ParseDuration(*f.LockTimeout)
		if err != nil {
			return base, fmt.Errorf("loading %s: lock_timeout: %w", path, err)
		}
		cfg.LockTimeout = d
	}
	return cfg, cfg.Validate()
}

// Apply decodes overrides (typically parsed from -set key=value flags) on
// top of base. Values may be strings; they are converted to the field type.
func Apply(base Config, overrides map[string]any) (Config, error) {
	cfg := base
	if base.Floor != nil {
		// mapstructure decodes into an existing pointee; keep base untouched.
		floor := *base.Floor
		cfg.Floor = &floor
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cfg,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return base, err
	}
	if err := decoder.Decode(overrides); err != nil {
		return base, fmt.Errorf("applying overrides: %w", err)
	}
	return cfg, cfg.Validate()
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs *multierror.Error
	if c.Workers < 1 {
		errs = multierror.Append(errs, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers))
	}
	if c.Items < 1 {
		errs = multierror.Append(errs, fmt.Errorf("%w: items must be at least 1, got %d", ErrInvalid, c.Items))
	}
	if c.Readers < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: readers must not be negative, got %d", ErrInvalid, c.Readers))
	}
	if c.LockTimeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%w: lock_timeout must not be negative, got %s", ErrInvalid, c.LockTimeout))
	}
	return errs.ErrorOrNil()
}
