package inspect

import (
	"fmt"

	"github.com/danmuck/biffrec/internal/record"
)

type CellInfo struct {
	Row    int `json:"row"`
	Column int `json:"column"`
	XF     int `json:"xf"`
}

// RecordInfo describes one decoded record.
type RecordInfo struct {
	Offset      int64     `json:"offset"`
	Tag         uint16    `json:"tag"`
	TagHex      string    `json:"tag_hex"`
	Name        string    `json:"name"`
	Size        int       `json:"size"`
	Encoded     int       `json:"encoded"`
	Frames      int       `json:"frames"`
	Continuable bool      `json:"continuable"`
	Raw         bool      `json:"raw"`
	Cell        *CellInfo `json:"cell,omitempty"`
}

type Summary struct {
	Records      []RecordInfo   `json:"records"`
	Count        int            `json:"count"`
	Bytes        int            `json:"bytes"`
	Continued    int            `json:"continued"`
	RawFallbacks int            `json:"raw_fallbacks"`
	Kinds        map[string]int `json:"kinds"`
}

// Summarize describes recs as decoded against reg.
func Summarize(recs []record.Record, reg *record.Registry, f record.Format) Summary {
	out := Summary{
		Records: make([]RecordInfo, 0, len(recs)),
		Kinds:   make(map[string]int),
	}
	for _, rec := range recs {
		tag := rec.Tag()
		kind, known := reg.Lookup(tag)
		info := RecordInfo{
			Offset:      rec.Offset,
			Tag:         tag,
			TagHex:      fmt.Sprintf("0x%04X", tag),
			Name:        kind.Name,
			Size:        rec.Body.DataSize(),
			Encoded:     record.Size(rec.Body, f),
			Frames:      rec.Frames,
			Continuable: kind.Continuable,
			Raw:         !known,
		}
		if c, ok := rec.Body.(record.CellRef); ok {
			info.Cell = &CellInfo{Row: c.Row(), Column: c.Column(), XF: c.XFIndex()}
		}
		out.Records = append(out.Records, info)
		out.Bytes += info.Encoded
		out.Kinds[info.Name]++
		if rec.Frames > 1 {
			out.Continued++
		}
		if !known {
			out.RawFallbacks++
		}
	}
	out.Count = len(out.Records)
	return out
}
