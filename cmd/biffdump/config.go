package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// dumpConfig holds CLI-only presentation settings from the [dump] table.
type dumpConfig struct {
	HumanSizes bool
	Limit      int
	CellsOnly  bool
}

func defaultDumpConfig() dumpConfig {
	return dumpConfig{HumanSizes: true}
}

type fileConfig struct {
	Dump struct {
		HumanSizes bool `toml:"human_sizes"`
		Limit      int  `toml:"limit"`
		CellsOnly  bool `toml:"cells_only"`
	} `toml:"dump"`
}

func loadDumpConfig(path string) (dumpConfig, error) {
	cfg := defaultDumpConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return dumpConfig{}, fmt.Errorf("load dump config: %w", err)
	}

	if meta.IsDefined("dump", "human_sizes") {
		cfg.HumanSizes = raw.Dump.HumanSizes
	}

	if meta.IsDefined("dump", "limit") {
		if raw.Dump.Limit < 0 {
			return dumpConfig{}, fmt.Errorf("dump.limit must not be negative")
		}
		cfg.Limit = raw.Dump.Limit
	}

	if meta.IsDefined("dump", "cells_only") {
		cfg.CellsOnly = raw.Dump.CellsOnly
	}

	return cfg, nil
}
