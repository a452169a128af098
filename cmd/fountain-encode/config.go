package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML overlay loaded via --config, layered
// under CLI flags the same way a config file sits under command-line
// overrides.
type fileConfig struct {
	ChunkSize   uint16 `yaml:"chunk_size"`
	AnchorEvery uint16 `yaml:"anchor_every"`
	PixelScale  uint8  `yaml:"pixel_scale"`
	QrEcc       string `yaml:"qr_ecc"`
	IntervalMs  int    `yaml:"interval_ms"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}
