package main

import (
	"github.com/spf13/cobra"

	"github.com/danmuck/biffrec/internal/inspect"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP inspect server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCodecConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Inspect.Addr, _ = cmd.Flags().GetString("addr")
		}
		id, _ := cmd.Flags().GetString("id")
		return inspect.New(id, cfg).Serve()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides [inspect].addr)")
	serveCmd.Flags().String("id", "biffdump", "server id reported by /health and in metrics")
	rootCmd.AddCommand(serveCmd)
}
