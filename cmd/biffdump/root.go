package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/biffrec/internal/config"
	"github.com/danmuck/biffrec/internal/record"
)

var rootCmd = &cobra.Command{
	Use:   "biffdump",
	Short: "Inspect and verify BIFF8 record streams",
	Long: `biffdump decodes the record layer of a BIFF8 workbook stream: frame
headers, continuation frames and the payload kinds it knows about. The input
is the raw Workbook stream, already extracted from its compound file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "TOML codec profile")
	rootCmd.PersistentFlags().String("continue-tag", "", "continuation frame tag, e.g. 0x003C")
	rootCmd.PersistentFlags().Int("max-payload", 0, "max payload bytes per frame")
}

// loadCodecConfig resolves the profile file, then applies flag overrides.
func loadCodecConfig(cmd *cobra.Command) (config.CodecConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.CodecConfig{}, err
		}
	}
	if cmd.Flags().Changed("continue-tag") {
		raw, _ := cmd.Flags().GetString("continue-tag")
		tag, err := parseTag(raw)
		if err != nil {
			return config.CodecConfig{}, fmt.Errorf("--continue-tag: %w", err)
		}
		cfg.Format.ContinueTag = tag
	}
	if cmd.Flags().Changed("max-payload") {
		cfg.Format.MaxPayload, _ = cmd.Flags().GetInt("max-payload")
	}
	if err := config.Validate(cfg); err != nil {
		return config.CodecConfig{}, err
	}
	log.Debug().
		Str("config", path).
		Uint16("continue_tag", cfg.Format.ContinueTag).
		Int("max_payload", cfg.Format.MaxPayload).
		Msg("codec profile loaded")
	return cfg, nil
}

func decoderOptions(cfg config.CodecConfig, reg *record.Registry) record.DecoderOptions {
	return record.DecoderOptions{
		Format:   cfg.RecordFormat(),
		Registry: reg,
		Logger:   &log.Logger,
	}
}

// parseTag accepts decimal or 0x-prefixed hex.
func parseTag(raw string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
