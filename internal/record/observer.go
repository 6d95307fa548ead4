package record

// Observer receives codec events. Implementations must be cheap; they run
// inline on the decode path.
type Observer interface {
	FrameRead(tag uint16, length int)
	RecordDecoded(tag uint16, name string, frames int, raw bool)
	RecordEncoded(tag uint16, frames int)
	FormatFailure(err *FormatError)
}

type nopObserver struct{}

func (nopObserver) FrameRead(uint16, int)                   {}
func (nopObserver) RecordDecoded(uint16, string, int, bool) {}
func (nopObserver) RecordEncoded(uint16, int)               {}
func (nopObserver) FormatFailure(*FormatError)              {}
