package record

// HeaderReader reads the two header fields of a frame. Both fields come
// straight off the transport; the format leaves them unencrypted so frames can
// be navigated before any decryption state exists.
type HeaderReader interface {
	ReadTypeTag() (uint16, error)
	ReadLength() (uint16, error)
	// Available is the number of bytes left in the current scope.
	Available() (int64, error)
}

type sourceHeaderReader struct {
	src Source
}

// NewHeaderReader reads frame headers from src without touching its
// decryption path.
func NewHeaderReader(src Source) HeaderReader {
	return &sourceHeaderReader{src: src}
}

func (h *sourceHeaderReader) ReadTypeTag() (uint16, error) {
	avail, err := h.Available()
	if err != nil {
		return 0, err
	}
	if avail < HeaderSize {
		return 0, formatErr("read tag", 0, 0, ErrTruncatedHeader, nil)
	}
	tag, err := h.src.ReadPlainUint16()
	if err != nil {
		return 0, formatErr("read tag", 0, 0, ErrTruncatedHeader, err)
	}
	return tag, nil
}

func (h *sourceHeaderReader) ReadLength() (uint16, error) {
	avail, err := h.Available()
	if err != nil {
		return 0, err
	}
	if avail < 2 {
		return 0, formatErr("read length", 0, 0, ErrTruncatedHeader, nil)
	}
	n, err := h.src.ReadPlainUint16()
	if err != nil {
		return 0, formatErr("read length", 0, 0, ErrTruncatedHeader, err)
	}
	return n, nil
}

func (h *sourceHeaderReader) Available() (int64, error) {
	n := h.src.Remaining()
	if n < 0 {
		return 0, formatErr("available", 0, 0, ErrNegativeAvailable, nil)
	}
	return n, nil
}
