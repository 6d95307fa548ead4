package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/biffrec/internal/config"
	"github.com/danmuck/biffrec/internal/record"
	"github.com/danmuck/biffrec/internal/record/kinds"
	"github.com/danmuck/biffrec/internal/testutil/testlog"
)

func writeStream(t *testing.T, stream []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Workbook.bin")
	if err := os.WriteFile(path, stream, 0o600); err != nil {
		t.Fatalf("write stream: %v", err)
	}
	return path
}

func worksheetStream(t *testing.T) []byte {
	t.Helper()
	label, err := kinds.NewLabel(kinds.Cell{Rw: 1, Col: 0, XF: 15}, "total")
	if err != nil {
		t.Fatalf("new label: %v", err)
	}
	stream, err := record.Marshal(record.DefaultFormat(), kinds.NewRegistry(),
		&kinds.BOF{Version: kinds.BIFF8Version, Type: kinds.SubstreamWorksheet},
		&kinds.Number{Cell: kinds.Cell{Rw: 0, Col: 0, XF: 15}, Value: 42},
		label,
		record.NewRawPayload(kinds.TagMsoDrawing, make([]byte, 9000)),
		kinds.EOF{},
	)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return stream
}

func TestRunDumpListsRecords(t *testing.T) {
	testlog.Start(t)
	path := writeStream(t, worksheetStream(t))

	var out bytes.Buffer
	if err := runDump(&out, path, config.Default(), defaultDumpConfig()); err != nil {
		t.Fatalf("dump: %v", err)
	}
	text := out.String()
	for _, want := range []string{"BOF", "NUMBER", "LABEL", "MSODRAWING", "EOF", "R1C0 xf=15", "0x0809"} {
		if !strings.Contains(text, want) {
			t.Fatalf("dump output missing %q:\n%s", want, text)
		}
	}
	testlog.Logf("biffdump/dump: listed %d bytes of table output", out.Len())
}

func TestRunDumpCellsOnlyAndLimit(t *testing.T) {
	testlog.Start(t)
	path := writeStream(t, worksheetStream(t))

	var out bytes.Buffer
	dc := dumpConfig{CellsOnly: true, Limit: 3}
	if err := runDump(&out, path, config.Default(), dc); err != nil {
		t.Fatalf("dump: %v", err)
	}
	text := out.String()
	if strings.Contains(text, "MSODRAWING") {
		t.Fatalf("limit ignored:\n%s", text)
	}
	if !strings.Contains(text, "2 of 3 records shown") {
		t.Fatalf("missing shown count:\n%s", text)
	}
}

func TestRunDumpReportsFormatError(t *testing.T) {
	testlog.Start(t)
	stream := worksheetStream(t)
	path := writeStream(t, stream[:len(stream)-2])

	var out bytes.Buffer
	err := runDump(&out, path, config.Default(), defaultDumpConfig())
	if !record.IsFormatError(err) {
		t.Fatalf("expected format error, got %v", err)
	}
	if !strings.Contains(out.String(), "NUMBER") {
		t.Fatalf("records before the failure should still be listed:\n%s", out.String())
	}
}

func TestRunVerify(t *testing.T) {
	testlog.Start(t)
	var out bytes.Buffer
	if err := runVerify(&out, writeStream(t, worksheetStream(t)), config.Default()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out.String(), "identical") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	// A zero-length continuation frame decodes fine but is never re-emitted.
	var stream []byte
	stream = record.AppendFrame(stream, record.Frame{Tag: kinds.TagMsoDrawing, Payload: []byte{1}})
	stream = record.AppendFrame(stream, record.Frame{Tag: record.DefaultContinueTag})
	out.Reset()
	err := runVerify(&out, writeStream(t, stream), config.Default())
	if !errors.Is(err, errMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	testlog.Logf("biffdump/verify: mismatch detected: %v", err)
}
