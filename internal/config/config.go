// Package config handles meshtool configuration loading and management.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/edgebreaker/pkg/edgebreaker"
)

// Config holds all meshtool settings.
type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Output  OutputConfig  `yaml:"output"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// EncoderConfig selects how meshes are compressed.
type EncoderConfig struct {
	Method             string `yaml:"method"` // auto, standard, predictive or valence
	Speed              int    `yaml:"speed"`
	SingleConnectivity bool   `yaml:"single_connectivity"`
	Deduplicate        bool   `yaml:"deduplicate"`
}

// OutputConfig controls the files meshtool writes.
type OutputConfig struct {
	XZ bool `yaml:"xz"` // wrap encoded meshes in an xz stream
}

// StoreConfig locates the mesh archive.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Method:      "auto",
			Speed:       5,
			Deduplicate: true,
		},
		Store: StoreConfig{
			Path: "meshes.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Encoder.Speed < 0 || c.Encoder.Speed > edgebreaker.MaxSpeed {
		return errors.Errorf("encoder speed %d outside 0..%d", c.Encoder.Speed, edgebreaker.MaxSpeed)
	}
	if _, err := c.traversal(); err != nil {
		return err
	}
	return nil
}

func (c *Config) traversal() (edgebreaker.TraversalMethod, error) {
	method := strings.ToLower(strings.TrimSpace(c.Encoder.Method))
	if method == "" || method == "auto" {
		return edgebreaker.TraversalAuto, nil
	}
	return edgebreaker.ParseTraversalMethod(method)
}

// EncoderOptions converts the encoder section into codec options.
func (c *Config) EncoderOptions(log *zap.Logger) (edgebreaker.Options, error) {
	if err := c.Validate(); err != nil {
		return edgebreaker.Options{}, err
	}
	method, _ := c.traversal()
	return edgebreaker.Options{
		Speed:              c.Encoder.Speed,
		Traversal:          method,
		SingleConnectivity: c.Encoder.SingleConnectivity,
		Logger:             log,
	}, nil
}
