package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Frame is one physical header+payload unit.
type Frame struct {
	Tag     uint16
	Payload []byte
}

// Size is the encoded size including the header.
func (f Frame) Size() int {
	return HeaderSize + len(f.Payload)
}

// Split cuts a logical payload into a head frame tagged tag followed by
// continuation frames of at most MaxPayload bytes each. The returned frames
// alias payload.
func Split(tag uint16, payload []byte, f Format) []Frame {
	f = f.orDefault()
	frames := make([]Frame, 0, f.FrameCount(len(payload)))
	head := min(len(payload), f.MaxPayload)
	frames = append(frames, Frame{Tag: tag, Payload: payload[:head]})
	for off := head; off < len(payload); off += f.MaxPayload {
		end := min(off+f.MaxPayload, len(payload))
		frames = append(frames, Frame{Tag: f.ContinueTag, Payload: payload[off:end]})
	}
	return frames
}

// Join reassembles a head frame and its continuation frames into the logical
// tag and payload.
func Join(frames []Frame, f Format) (uint16, []byte, error) {
	f = f.orDefault()
	if len(frames) == 0 {
		return 0, nil, ErrNoFrames
	}
	head := frames[0]
	if f.IsContinue(head.Tag) {
		return 0, nil, formatErr("join", head.Tag, 0, ErrOrphanContinuation, nil)
	}
	total := 0
	var offset int64
	for i, fr := range frames {
		if len(fr.Payload) > f.MaxPayload {
			return 0, nil, formatErr("join", fr.Tag, offset, ErrFrameTooLarge, nil)
		}
		if i > 0 && !f.IsContinue(fr.Tag) {
			return 0, nil, formatErr("join", fr.Tag, offset, ErrNotContinuation, nil)
		}
		total += len(fr.Payload)
		offset += int64(fr.Size())
	}
	payload := make([]byte, 0, total)
	for _, fr := range frames {
		payload = append(payload, fr.Payload...)
	}
	return head.Tag, payload, nil
}

func EncodeHeader(tag uint16, length uint16) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], tag)
	binary.LittleEndian.PutUint16(buf[2:4], length)
	return buf
}

// AppendFrame appends the encoded frame to dst.
func AppendFrame(dst []byte, fr Frame) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, fr.Tag)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(fr.Payload)))
	return append(dst, fr.Payload...)
}

func WriteFrame(w io.Writer, fr Frame) error {
	if len(fr.Payload) > math.MaxUint16 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(fr.Payload))
	}
	if _, err := w.Write(EncodeHeader(fr.Tag, uint16(len(fr.Payload)))); err != nil {
		return err
	}
	if len(fr.Payload) == 0 {
		return nil
	}
	_, err := w.Write(fr.Payload)
	return err
}
