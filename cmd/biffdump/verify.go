package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danmuck/biffrec/internal/config"
	"github.com/danmuck/biffrec/internal/inspect"
)

var errMismatch = errors.New("round trip mismatch")

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Decode and re-encode a stream, checking the bytes match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCodecConfig(cmd)
		if err != nil {
			return err
		}
		return runVerify(cmd.OutOrStdout(), args[0], cfg)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(w io.Writer, path string, cfg config.CodecConfig) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	res, err := inspect.Verify(payload, decoderOptions(cfg, cfg.Registry()))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(w, "%s: %s records, %s in, %s out\n",
		path,
		humanize.Comma(int64(res.Records)),
		humanize.IBytes(uint64(res.InputBytes)),
		humanize.IBytes(uint64(res.OutputBytes)),
	)
	if !res.Identical {
		return fmt.Errorf("%w: first difference at byte %d", errMismatch, res.FirstDiff)
	}
	fmt.Fprintln(w, "identical")
	return nil
}
