package record

import (
	"cmp"
	"slices"
)

// CellRef is implemented by bodies that address a single worksheet cell.
// Consumers discover it with a type assertion; there is no registry of
// cell kinds.
type CellRef interface {
	Row() int
	Column() int
	XFIndex() int
}

// CompareCells orders cells row-major.
func CompareCells(a, b CellRef) int {
	if c := cmp.Compare(a.Row(), b.Row()); c != 0 {
		return c
	}
	return cmp.Compare(a.Column(), b.Column())
}

// SortCells sorts cells row-major, keeping the stream order of duplicates.
func SortCells(cells []CellRef) {
	slices.SortStableFunc(cells, CompareCells)
}

// CellsOf collects the record bodies that carry a cell coordinate.
func CellsOf(recs []Record) []CellRef {
	var out []CellRef
	for _, rec := range recs {
		if c, ok := rec.Body.(CellRef); ok {
			out = append(out, c)
		}
	}
	return out
}
