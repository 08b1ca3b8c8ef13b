// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads optional stigsmith.yml settings. A missing config
// file is not an error: compiled-in defaults cover the standard Fleet
// layout, and the file only overrides the pieces it names.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/bartekus/stigsmith/internal/fleetschema"
	"github.com/bartekus/stigsmith/internal/structparse"
)

// Config holds the extraction settings.
type Config struct {
	// FleetRepo is the path to the Fleet checkout to scrape.
	FleetRepo string
	// OutputDir anchors the generated artifact paths.
	OutputDir string
	// Targets are the source files and structs to scrape.
	Targets []fleetschema.Target
	// FieldSources orders the structs contributing wire names; the first is
	// the base declaration.
	FieldSources []string
	// ScopeMarkers are the comment phrases flagging team-only fields.
	ScopeMarkers []string
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		OutputDir:    ".",
		Targets:      fleetschema.DefaultTargets,
		FieldSources: fleetschema.DefaultFieldSources,
		ScopeMarkers: structparse.DefaultScopeMarkers,
	}
}

// Load reads stigsmith.yml from dir (the working directory when empty),
// applying it on top of the defaults. Environment variables prefixed with
// STIGSMITH override file values.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	v := viper.New()
	v.SetConfigName("stigsmith")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	v.SetEnvPrefix("STIGSMITH")

	cfg := Default()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading stigsmith.yml: %w", err)
	}

	if s := v.GetString("extract.fleet_repo"); s != "" {
		cfg.FleetRepo = s
	}
	if s := v.GetString("extract.output_dir"); s != "" {
		cfg.OutputDir = s
	}
	if markers := v.GetStringSlice("extract.scope_markers"); len(markers) > 0 {
		cfg.ScopeMarkers = markers
	}
	if sources := v.GetStringSlice("extract.field_sources"); len(sources) > 0 {
		cfg.FieldSources = sources
	}

	var targets []fleetschema.Target
	if err := v.UnmarshalKey("extract.targets", &targets); err != nil {
		return nil, fmt.Errorf("parsing extract.targets: %w", err)
	}
	if len(targets) > 0 {
		cfg.Targets = targets
	}

	return cfg, nil
}
