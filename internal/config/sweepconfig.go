// Package config loads optional JSON sweep configuration. Fields are
// pointers so a partial file overrides only what it names.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/lockin.report/internal/lockin"
	"github.com/banshee-data/lockin.report/internal/sweep"
)

// SweepConfig is the root configuration for a 3-omega acquisition run.
// Durations are strings like "5s" so the JSON stays human-editable.
type SweepConfig struct {
	Label *string `json:"label,omitempty"`

	// Frequency grid: either an explicit list, or a geometric grid
	// described by min/max/points.
	Freqs   []float64 `json:"freqs,omitempty"`
	FreqMin *float64  `json:"freq_min,omitempty"`
	FreqMax *float64  `json:"freq_max,omitempty"`
	NPoints *int      `json:"n_points,omitempty"`

	Ampls []float64 `json:"ampls,omitempty"`

	// Preset overrides applied to every sweep role.
	Sensitivity   *int    `json:"sensitivity,omitempty"`
	StabilizeTime *string `json:"stabilize_time,omitempty"`
	MeasureTime   *string `json:"measure_time,omitempty"`
	AmplitudeTime *string `json:"amplitude_time,omitempty"`
	LMax          *int    `json:"l_max,omitempty"`
}

// Load reads and validates a SweepConfig from a JSON file.
// The file must have a .json extension and stay under the max file size.
func Load(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &SweepConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validDuration(name, s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must be non-negative, got %s", name, d)
	}
	return nil
}

// Validate checks every populated field against instrument limits.
func (c *SweepConfig) Validate() error {
	for _, f := range c.Freqs {
		if err := lockin.ValidateFrequency(f); err != nil {
			return err
		}
	}
	if c.FreqMin != nil {
		if err := lockin.ValidateFrequency(*c.FreqMin); err != nil {
			return err
		}
	}
	if c.FreqMax != nil {
		if err := lockin.ValidateFrequency(*c.FreqMax); err != nil {
			return err
		}
	}
	if c.FreqMin != nil && c.FreqMax != nil && *c.FreqMin >= *c.FreqMax {
		return fmt.Errorf("freq_min %g must be below freq_max %g", *c.FreqMin, *c.FreqMax)
	}
	if c.NPoints != nil && *c.NPoints <= 0 {
		return fmt.Errorf("n_points must be positive, got %d", *c.NPoints)
	}

	for _, a := range c.Ampls {
		if err := lockin.ValidateAmplitude(a); err != nil {
			return err
		}
	}

	if c.Sensitivity != nil {
		if err := lockin.ValidateSensitivity(*c.Sensitivity); err != nil {
			return err
		}
	}
	if c.StabilizeTime != nil {
		if err := validDuration("stabilize_time", *c.StabilizeTime); err != nil {
			return err
		}
	}
	if c.MeasureTime != nil {
		if err := validDuration("measure_time", *c.MeasureTime); err != nil {
			return err
		}
	}
	if c.AmplitudeTime != nil {
		if err := validDuration("amplitude_time", *c.AmplitudeTime); err != nil {
			return err
		}
	}
	if c.LMax != nil && *c.LMax <= 0 {
		return fmt.Errorf("l_max must be positive, got %d", *c.LMax)
	}
	return nil
}

// Frequencies returns the configured frequency grid: the explicit list when
// given, otherwise the geometric grid, otherwise nil (caller defaults apply).
func (c *SweepConfig) Frequencies() []float64 {
	if len(c.Freqs) > 0 {
		return c.Freqs
	}
	if c.FreqMin != nil && c.FreqMax != nil && c.NPoints != nil {
		return sweep.Freqspace(*c.FreqMin, *c.FreqMax, *c.NPoints)
	}
	return nil
}

// Overrides converts the preset override fields for the sweep session.
// Call Validate first; unparseable durations are ignored here.
func (c *SweepConfig) Overrides() sweep.Overrides {
	o := sweep.Overrides{
		Sensitivity: c.Sensitivity,
		LMax:        c.LMax,
	}
	if c.StabilizeTime != nil {
		if d, err := time.ParseDuration(*c.StabilizeTime); err == nil {
			o.StabilizeTime = &d
		}
	}
	if c.MeasureTime != nil {
		if d, err := time.ParseDuration(*c.MeasureTime); err == nil {
			o.MeasureTime = &d
		}
	}
	if c.AmplitudeTime != nil {
		if d, err := time.ParseDuration(*c.AmplitudeTime); err == nil {
			o.AmplitudeTime = &d
		}
	}
	return o
}
