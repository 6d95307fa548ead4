package kinds

import (
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/biffrec/internal/record"
)

// Cell is the row/column/XF triple that opens every cell record.
type Cell struct {
	Rw  uint16
	Col uint16
	XF  uint16
}

func (c Cell) Row() int     { return int(c.Rw) }
func (c Cell) Column() int  { return int(c.Col) }
func (c Cell) XFIndex() int { return int(c.XF) }

func (c Cell) put(w *record.PayloadWriter) {
	w.Uint16(c.Rw)
	w.Uint16(c.Col)
	w.Uint16(c.XF)
}

func readCell(r *record.PayloadReader) Cell {
	return Cell{Rw: r.Uint16(), Col: r.Uint16(), XF: r.Uint16()}
}

const cellSize = 6

var (
	_ record.CellRef = (*Number)(nil)
	_ record.CellRef = (*Blank)(nil)
	_ record.CellRef = (*RK)(nil)
	_ record.CellRef = (*LabelSST)(nil)
	_ record.CellRef = (*Label)(nil)
	_ record.CellRef = (*MulBlank)(nil)
)

// Number is a cell holding an IEEE 754 double.
type Number struct {
	Cell
	Value float64
}

func (n *Number) TypeTag() uint16 { return TagNumber }
func (n *Number) DataSize() int   { return cellSize + 8 }

func (n *Number) Serialize(w *record.PayloadWriter) {
	n.put(w)
	w.Float64(n.Value)
}

func (n *Number) Clone() record.Body {
	cp := *n
	return &cp
}

func decodeNumber(_ uint16, payload []byte) (record.Body, error) {
	r := record.NewPayloadReader(payload)
	n := &Number{Cell: readCell(r), Value: r.Float64()}
	return n, r.Done()
}

// Blank is a formatted empty cell.
type Blank struct {
	Cell
}

func (b *Blank) TypeTag() uint16                   { return TagBlank }
func (b *Blank) DataSize() int                     { return cellSize }
func (b *Blank) Serialize(w *record.PayloadWriter) { b.put(w) }

func (b *Blank) Clone() record.Body {
	cp := *b
	return &cp
}

func decodeBlank(_ uint16, payload []byte) (record.Body, error) {
	r := record.NewPayloadReader(payload)
	b := &Blank{Cell: readCell(r)}
	return b, r.Done()
}

// RK is a cell holding a number packed into 30 bits.
type RK struct {
	Cell
	Packed uint32
}

func (k *RK) TypeTag() uint16 { return TagRK }
func (k *RK) DataSize() int   { return cellSize + 4 }

func (k *RK) Serialize(w *record.PayloadWriter) {
	k.put(w)
	w.Uint32(k.Packed)
}

func (k *RK) Clone() record.Body {
	cp := *k
	return &cp
}

// Value unpacks the number. Bit 0 means the value was multiplied by 100,
// bit 1 means the upper 30 bits are a signed integer rather than the high
// bits of a double.
func (k *RK) Value() float64 {
	var v float64
	if k.Packed&0x2 != 0 {
		v = float64(int32(k.Packed) >> 2)
	} else {
		v = math.Float64frombits(uint64(k.Packed&0xFFFFFFFC) << 32)
	}
	if k.Packed&0x1 != 0 {
		v /= 100
	}
	return v
}

func decodeRK(_ uint16, payload []byte) (record.Body, error) {
	r := record.NewPayloadReader(payload)
	k := &RK{Cell: readCell(r), Packed: r.Uint32()}
	return k, r.Done()
}

// LabelSST is a cell pointing into the shared string table.
type LabelSST struct {
	Cell
	Index uint32
}

func (l *LabelSST) TypeTag() uint16 { return TagLabelSST }
func (l *LabelSST) DataSize() int   { return cellSize + 4 }

func (l *LabelSST) Serialize(w *record.PayloadWriter) {
	l.put(w)
	w.Uint32(l.Index)
}

func (l *LabelSST) Clone() record.Body {
	cp := *l
	return &cp
}

func decodeLabelSST(_ uint16, payload []byte) (record.Body, error) {
	r := record.NewPayloadReader(payload)
	l := &LabelSST{Cell: readCell(r), Index: r.Uint32()}
	return l, r.Done()
}

// ErrEmptyRun is returned when a MULBLANK holds no cells.
var ErrEmptyRun = errors.New("kinds: MULBLANK run is empty")

// MulBlank is a run of blank cells in one row. Its CellRef is the first cell
// of the run.
type MulBlank struct {
	Rw       uint16
	FirstCol uint16
	XFs      []uint16
}

func (m *MulBlank) Row() int    { return int(m.Rw) }
func (m *MulBlank) Column() int { return int(m.FirstCol) }

// XFIndex is the format of the first cell, or 0 for an empty run.
func (m *MulBlank) XFIndex() int {
	if len(m.XFs) == 0 {
		return 0
	}
	return int(m.XFs[0])
}

// LastCol is the column of the final cell in the run. An empty run has no
// last cell and reports FirstCol.
func (m *MulBlank) LastCol() uint16 {
	if len(m.XFs) == 0 {
		return m.FirstCol
	}
	return m.FirstCol + uint16(len(m.XFs)) - 1
}

// Validate rejects runs the decoder would not accept back.
func (m *MulBlank) Validate() error {
	if len(m.XFs) == 0 {
		return ErrEmptyRun
	}
	if int(m.FirstCol)+len(m.XFs)-1 > 0xFFFF {
		return fmt.Errorf("MULBLANK: run of %d from column %d overflows", len(m.XFs), m.FirstCol)
	}
	return nil
}

// Cells expands the run.
func (m *MulBlank) Cells() []Cell {
	out := make([]Cell, len(m.XFs))
	for i, xf := range m.XFs {
		out[i] = Cell{Rw: m.Rw, Col: m.FirstCol + uint16(i), XF: xf}
	}
	return out
}

func (m *MulBlank) TypeTag() uint16 { return TagMulBlank }
func (m *MulBlank) DataSize() int   { return 6 + 2*len(m.XFs) }

func (m *MulBlank) Serialize(w *record.PayloadWriter) {
	w.Uint16(m.Rw)
	w.Uint16(m.FirstCol)
	for _, xf := range m.XFs {
		w.Uint16(xf)
	}
	w.Uint16(m.LastCol())
}

func (m *MulBlank) Clone() record.Body {
	cp := *m
	cp.XFs = append([]uint16(nil), m.XFs...)
	return &cp
}

func decodeMulBlank(_ uint16, payload []byte) (record.Body, error) {
	if len(payload) < 8 || len(payload)%2 != 0 {
		return nil, fmt.Errorf("MULBLANK: bad payload size %d", len(payload))
	}
	r := record.NewPayloadReader(payload)
	m := &MulBlank{Rw: r.Uint16(), FirstCol: r.Uint16()}
	n := (len(payload) - 6) / 2
	m.XFs = make([]uint16, n)
	for i := range m.XFs {
		m.XFs[i] = r.Uint16()
	}
	last := r.Uint16()
	if err := r.Done(); err != nil {
		return nil, err
	}
	if last != m.LastCol() {
		return nil, fmt.Errorf("MULBLANK: last column %d, want %d", last, m.LastCol())
	}
	return m, nil
}
