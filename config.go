package tomo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SectionConfig is the YAML profile of a cross section. It mirrors
// SectionOptions so research runs can be described in files instead of
// code.
type SectionConfig struct {
	Pos0 struct {
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
	} `yaml:"pos0"`
	Pos1 struct {
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
	} `yaml:"pos1"`

	BeforeExtensionDeg float64 `yaml:"beforeExtensionDeg"`
	AfterExtensionDeg  float64 `yaml:"afterExtensionDeg"`

	MarginDeg      float64 `yaml:"marginDeg"`
	MarginKm       float64 `yaml:"marginKm"`
	RadiusMarginKm float64 `yaml:"radiusMarginKm"`

	Mosaic                bool    `yaml:"mosaic"`
	SmoothingFactor       float64 `yaml:"smoothingFactor"`
	VerticalEnlargeFactor float64 `yaml:"verticalEnlargeFactor"`
	IntervalDeg           float64 `yaml:"intervalDeg"`
	RadiusIntervalKm      float64 `yaml:"radiusIntervalKm"`
	KeepRawRadii          bool    `yaml:"keepRawRadii"`
	Workers               int     `yaml:"workers"`
}

// DefaultSectionConfig returns a profile with the default tuning factors.
func DefaultSectionConfig() *SectionConfig {
	cfg := &SectionConfig{}
	cfg.SmoothingFactor = 2
	cfg.VerticalEnlargeFactor = 2
	return cfg
}

// LoadSectionConfig loads a profile from a YAML file, overlaying it on the
// defaults. A missing file yields the defaults.
func LoadSectionConfig(path string) (*SectionConfig, error) {
	cfg := DefaultSectionConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading section profile: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing section profile: %w", err)
	}
	return cfg, nil
}

// SaveSectionConfig writes a profile to a YAML file.
func SaveSectionConfig(cfg *SectionConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling section profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing section profile: %w", err)
	}
	return nil
}

// Options validates the profile and converts it to SectionOptions.
func (c *SectionConfig) Options() (SectionOptions, error) {
	pos0, err := NewHorizontalPosition(c.Pos0.Latitude, c.Pos0.Longitude)
	if err != nil {
		return SectionOptions{}, fmt.Errorf("pos0: %w", err)
	}
	pos1, err := NewHorizontalPosition(c.Pos1.Latitude, c.Pos1.Longitude)
	if err != nil {
		return SectionOptions{}, fmt.Errorf("pos1: %w", err)
	}
	return SectionOptions{
		Pos0:                  pos0,
		Pos1:                  pos1,
		BeforeExtensionDeg:    c.BeforeExtensionDeg,
		AfterExtensionDeg:     c.AfterExtensionDeg,
		MarginDeg:             c.MarginDeg,
		MarginKm:              c.MarginKm,
		RadiusMarginKm:        c.RadiusMarginKm,
		Mosaic:                c.Mosaic,
		SmoothingFactor:       c.SmoothingFactor,
		VerticalEnlargeFactor: c.VerticalEnlargeFactor,
		IntervalDeg:           c.IntervalDeg,
		RadiusIntervalKm:      c.RadiusIntervalKm,
		KeepRawRadii:          c.KeepRawRadii,
		Workers:               c.Workers,
	}, nil
}
