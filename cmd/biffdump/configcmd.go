package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/biffrec/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage codec profiles",
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a profile template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		force, _ := cmd.Flags().GetBool("force")
		if err := config.WriteTemplate(args[0], kind, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s profile to %s\n", kind, args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		if _, err := loadDumpConfig(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ok: continue_tag=0x%04X max_payload=%d continuable_tags=%d\n",
			args[0], cfg.Format.ContinueTag, cfg.Format.MaxPayload, len(cfg.Decode.ContinuableTags))
		return nil
	},
}

func init() {
	configInitCmd.Flags().String("kind", "codec", "template kind: codec or inspect")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
