package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFilter() error {
	f := c.Filter
	if math.IsNaN(f.Threshold) || math.IsInf(f.Threshold, 0) {
		return errors.New("filter.threshold must be a finite number")
	}
	if f.Threshold < 0 || f.Threshold > 1 {
		return fmt.Errorf("filter.threshold must be between 0 and 1, got %v", f.Threshold)
	}
	switch f.Pel {
	case 1, 2, 4:
	default:
		return fmt.Errorf("filter.pel must be 1, 2 or 4, got %d", f.Pel)
	}
	switch f.BlockSize {
	case 4, 8, 16, 32:
	default:
		return fmt.Errorf("filter.block_size must be 4, 8, 16 or 32, got %d", f.BlockSize)
	}
	if f.SearchRadius <= 0 {
		return errors.New("filter.search_radius must be positive")
	}
	if f.Lambda < 0 {
		return errors.New("filter.lambda must not be negative")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Workers < 0 {
		return errors.New("render.workers must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
