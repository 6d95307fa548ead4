package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/danmuck/biffrec/internal/config"
	"github.com/danmuck/biffrec/internal/inspect"
	"github.com/danmuck/biffrec/internal/record"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "List the records of a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCodecConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("config")
		dc, err := loadDumpConfig(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("limit") {
			dc.Limit, _ = cmd.Flags().GetInt("limit")
			if dc.Limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
		}
		if cmd.Flags().Changed("cells") {
			dc.CellsOnly, _ = cmd.Flags().GetBool("cells")
		}
		if cmd.Flags().Changed("raw-sizes") {
			raw, _ := cmd.Flags().GetBool("raw-sizes")
			dc.HumanSizes = !raw
		}
		return runDump(cmd.OutOrStdout(), args[0], cfg, dc)
	},
}

func init() {
	dumpCmd.Flags().Int("limit", 0, "stop after this many records (0 = all)")
	dumpCmd.Flags().Bool("cells", false, "only list records that address a cell")
	dumpCmd.Flags().Bool("raw-sizes", false, "print byte counts without humanizing")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(w io.Writer, path string, cfg config.CodecConfig, dc dumpConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	reg := cfg.Registry()
	dec, err := record.NewDecoder(record.NewStreamSource(f, st.Size()), decoderOptions(cfg, reg))
	if err != nil {
		return err
	}
	var recs []record.Record
	var decodeErr error
	for dc.Limit == 0 || len(recs) < dc.Limit {
		rec, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			decodeErr = err
			break
		}
		recs = append(recs, rec)
	}

	summary := inspect.Summarize(recs, reg, cfg.RecordFormat())
	renderSummary(w, summary, dc)
	if decodeErr != nil {
		return fmt.Errorf("%s: %w", path, decodeErr)
	}
	return nil
}

func renderSummary(w io.Writer, s inspect.Summary, dc dumpConfig) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Tag", "Name", "Size", "Frames", "Cell"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	shown := 0
	for _, r := range s.Records {
		if dc.CellsOnly && r.Cell == nil {
			continue
		}
		cell := ""
		if r.Cell != nil {
			cell = fmt.Sprintf("R%dC%d xf=%d", r.Cell.Row, r.Cell.Column, r.Cell.XF)
		}
		table.Append([]string{
			strconv.FormatInt(r.Offset, 10),
			r.TagHex,
			r.Name,
			formatSize(r.Size, dc.HumanSizes),
			strconv.Itoa(r.Frames),
			cell,
		})
		shown++
	}
	table.SetFooter([]string{
		"", "", fmt.Sprintf("%s records", humanize.Comma(int64(s.Count))),
		formatSize(s.Bytes, dc.HumanSizes),
		fmt.Sprintf("%d continued", s.Continued),
		fmt.Sprintf("%d raw", s.RawFallbacks),
	})
	table.Render()
	if shown != s.Count {
		fmt.Fprintf(w, "%d of %d records shown\n", shown, s.Count)
	}
}

func formatSize(n int, human bool) string {
	if human {
		return humanize.IBytes(uint64(n))
	}
	return strconv.Itoa(n)
}
