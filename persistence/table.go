package persistence

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// HeaderSize is the number of bytes before the first row.
	HeaderSize = 8
	// MaxDim bounds the dimension accepted from a header so that a damaged
	// file cannot force a huge scratch allocation.
	MaxDim = 1 << 20
)

// ErrCorrupt indicates that encoded table data is inconsistent with its
// header or truncated.
var ErrCorrupt = errors.New("persistence: corrupt table data")

// Header describes an encoded table.
type Header struct {
	Count int // rows including the sentinel
	Dim   int
}

// PayloadSize returns the number of row bytes that follow the header.
func (h Header) PayloadSize() int64 {
	return int64(h.Count) * int64(h.Dim) * 4
}

// EncodedSize returns the total encoded size of the table.
func (h Header) EncodedSize() int64 {
	return HeaderSize + h.PayloadSize()
}

func (h Header) validate() error {
	if h.Count < 1 {
		return fmt.Errorf("%w: entry count %d, the sentinel row is missing", ErrCorrupt, h.Count)
	}
	if h.Dim < 1 || h.Dim > MaxDim {
		return fmt.Errorf("%w: dimension %d", ErrCorrupt, h.Dim)
	}
	return nil
}

// WriteTable writes the header followed by every row. rows[0] is expected to
// be the sentinel. Every row must have exactly dim values.
func WriteTable(w io.Writer, dim int, rows [][]float32) error {
	if dim < 1 || dim > MaxDim {
		return fmt.Errorf("persistence: invalid dimension %d", dim)
	}
	if len(rows) > math.MaxInt32 {
		return fmt.Errorf("persistence: too many rows: %d", len(rows))
	}

	bw := bufio.NewWriterSize(w, 64*1024)

	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(rows))) //nolint:gosec // bounded above
	binary.LittleEndian.PutUint32(hdr[4:], uint32(dim))       //nolint:gosec // bounded above
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	buf := make([]byte, dim*4)
	for i, row := range rows {
		if len(row) != dim {
			return fmt.Errorf("persistence: row %d has %d values, want %d", i, len(row), dim)
		}
		encodeRow(buf, row)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadHeader decodes the table header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Header{}, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	h := Header{
		Count: int(int32(binary.LittleEndian.Uint32(hdr[0:]))), //nolint:gosec // signed on the wire
		Dim:   int(int32(binary.LittleEndian.Uint32(hdr[4:]))), //nolint:gosec // signed on the wire
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// ReadTable decodes a table from r, calling fn for every row after the
// sentinel in index order. The row slice passed to fn is a scratch buffer of
// the file's dimension that is overwritten by the next row; fn must copy it
// if it keeps it.
func ReadTable(r io.Reader, fn func(row []float32) error) (Header, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	h, err := ReadHeader(br)
	if err != nil {
		return Header{}, err
	}

	buf := make([]byte, h.Dim*4)
	row := make([]float32, h.Dim)
	for i := 0; i < h.Count; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return h, fmt.Errorf("%w: row %d of %d: %w", ErrCorrupt, i, h.Count, err)
		}
		if i == 0 {
			continue
		}
		decodeRow(row, buf)
		if err := fn(row); err != nil {
			return h, err
		}
	}
	return h, nil
}

// ReadTableBytes is ReadTable over an in-memory buffer. The declared size is
// checked against len(data) before any row is decoded, and trailing bytes
// are rejected.
func ReadTableBytes(data []byte, fn func(row []float32) error) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	h := Header{
		Count: int(int32(binary.LittleEndian.Uint32(data[0:]))), //nolint:gosec // signed on the wire
		Dim:   int(int32(binary.LittleEndian.Uint32(data[4:]))), //nolint:gosec // signed on the wire
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	if h.EncodedSize() != int64(len(data)) {
		return Header{}, fmt.Errorf("%w: header declares %d bytes, have %d", ErrCorrupt, h.EncodedSize(), len(data))
	}

	stride := h.Dim * 4
	row := make([]float32, h.Dim)
	for i := 1; i < h.Count; i++ {
		off := HeaderSize + i*stride
		decodeRow(row, data[off:off+stride])
		if err := fn(row); err != nil {
			return h, err
		}
	}
	return h, nil
}

func encodeRow(dst []byte, row []float32) {
	for i, v := range row {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

func decodeRow(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}
