package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/biffrec/internal/record"
	"github.com/danmuck/biffrec/internal/record/kinds"
)

const (
	DefaultInspectAddr  = ":9300"
	DefaultMaxBodyBytes = 32 << 20
)

// CodecConfig is the TOML codec profile shared by the CLI and the inspect
// server.
type CodecConfig struct {
	Format  FormatConfig  `toml:"format"`
	Decode  DecodeConfig  `toml:"decode"`
	Inspect InspectConfig `toml:"inspect"`
}

type FormatConfig struct {
	ContinueTag uint16 `toml:"continue_tag"`
	MaxPayload  int    `toml:"max_payload"`
}

type DecodeConfig struct {
	// UnknownContinuable lets unregistered tags absorb continuation frames.
	UnknownContinuable bool     `toml:"unknown_continuable"`
	ContinuableTags    []uint16 `toml:"continuable_tags"`
}

type InspectConfig struct {
	Addr         string   `toml:"addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	// Token, when set, is required as a bearer token on POST routes.
	Token        string   `toml:"token"`
}

func Default() CodecConfig {
	var cfg CodecConfig
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (CodecConfig, error) {
	var cfg CodecConfig
	if err := loadToml(path, &cfg); err != nil {
		return CodecConfig{}, err
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return CodecConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *CodecConfig) {
	if cfg.Format.ContinueTag == 0 {
		cfg.Format.ContinueTag = record.DefaultContinueTag
	}
	if cfg.Format.MaxPayload == 0 {
		cfg.Format.MaxPayload = record.DefaultMaxPayload
	}
	if strings.TrimSpace(cfg.Inspect.Addr) == "" {
		cfg.Inspect.Addr = DefaultInspectAddr
	}
	if cfg.Inspect.MaxBodyBytes == 0 {
		cfg.Inspect.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg CodecConfig) error {
	if err := cfg.RecordFormat().Validate(); err != nil {
		return fmt.Errorf("format invalid: %w", err)
	}
	if err := ValidateDecode(cfg.Decode, cfg.Format.ContinueTag); err != nil {
		return fmt.Errorf("decode invalid: %w", err)
	}
	if err := ValidateInspect(cfg.Inspect); err != nil {
		return fmt.Errorf("inspect invalid: %w", err)
	}
	return nil
}

func ValidateDecode(cfg DecodeConfig, continueTag uint16) error {
	seen := make(map[uint16]struct{}, len(cfg.ContinuableTags))
	for i, tag := range cfg.ContinuableTags {
		if tag == continueTag {
			return fmt.Errorf("continuable_tags[%d] is the continuation tag 0x%04X", i, tag)
		}
		if _, ok := seen[tag]; ok {
			return fmt.Errorf("continuable_tags[%d] duplicates 0x%04X", i, tag)
		}
		seen[tag] = struct{}{}
	}
	return nil
}

func ValidateInspect(cfg InspectConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}

// RecordFormat converts the [format] section.
func (c CodecConfig) RecordFormat() record.Format {
	return record.Format{
		ContinueTag: c.Format.ContinueTag,
		MaxPayload:  c.Format.MaxPayload,
	}
}

// Apply marks the configured tags continuable on reg.
func (d DecodeConfig) Apply(reg *record.Registry) {
	for _, tag := range d.ContinuableTags {
		reg.MarkContinuable(tag)
	}
	reg.SetFallbackContinuable(d.UnknownContinuable)
}

// Registry builds the built-in kind registry adjusted by the [decode]
// section.
func (c CodecConfig) Registry() *record.Registry {
	reg := kinds.NewRegistry()
	c.Decode.Apply(reg)
	return reg
}
