package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/hupe1980/vecscan/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used for a persisted table blob.
type Compression uint8

const (
	// CompressionNone stores the table layout as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Extension returns the file suffix appended to "vectors.bin".
func (c Compression) Extension() string {
	switch c {
	case CompressionLZ4:
		return ".lz4"
	case CompressionZSTD:
		return ".zst"
	default:
		return ""
	}
}

// ParseCompression parses "none", "lz4" or "zstd" (case-insensitive).
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zst":
		return CompressionZSTD, nil
	default:
		return CompressionNone, fmt.Errorf("persistence: unknown compression %q", s)
	}
}

// Frame format: [magic "VSCZ"][algo uint8][rawSize uint64][payloadSize uint64][crc32c(raw) uint32][payload]
const (
	frameMagic      = "VSCZ"
	frameHeaderSize = 4 + 1 + 8 + 8 + 4
)

var errUnknownAlgo = errors.New("persistence: unknown compression algorithm")

var zstdEncoderPool sync.Pool

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

// zstdPrealloc caps the buffer reserved up front from a declared raw size.
const zstdPrealloc = 64 << 20

// decodeZstd expands payload into at most rawSize+1 bytes. The frame header
// must declare rawSize when it declares a content size at all, so a frame
// that claims more than the container is rejected before any decoding.
func decodeZstd(payload []byte, rawSize uint64) ([]byte, error) {
	if len(payload) == 0 {
		return []byte{}, nil
	}
	if rawSize >= math.MaxInt64 {
		return nil, fmt.Errorf("implausible raw size %d", rawSize)
	}

	var h zstd.Header
	if err := h.Decode(payload); err != nil {
		return nil, err
	}
	if h.HasFCS && h.FrameContentSize != rawSize {
		return nil, fmt.Errorf("frame declares %d bytes, container %d", h.FrameContentSize, rawSize)
	}

	dec, err := zstd.NewReader(bytes.NewReader(payload), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	buf := bytes.NewBuffer(make([]byte, 0, min(rawSize, zstdPrealloc)))
	if _, err := io.Copy(buf, io.LimitReader(dec, int64(rawSize)+1)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compress wraps raw in a frame compressed with c. CompressionNone returns
// raw unchanged. An LZ4 block that does not shrink is stored uncompressed
// inside the frame.
func Compress(raw []byte, c Compression) ([]byte, error) {
	var payload []byte
	algo := c

	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("persistence: lz4: %w", err)
		}
		if n == 0 || n >= len(raw) {
			// Incompressible.
			algo = CompressionNone
			payload = raw
		} else {
			payload = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(raw, nil)
		putZstdEncoder(enc)
	default:
		return nil, fmt.Errorf("%w: %d", errUnknownAlgo, uint8(c))
	}

	out := make([]byte, frameHeaderSize+len(payload))
	copy(out, frameMagic)
	out[4] = byte(algo)
	binary.LittleEndian.PutUint64(out[5:], uint64(len(raw)))
	binary.LittleEndian.PutUint64(out[13:], uint64(len(payload)))
	binary.LittleEndian.PutUint32(out[21:], hash.CRC32C(raw))
	copy(out[frameHeaderSize:], payload)
	return out, nil
}

// IsCompressed reports whether data starts with a compression frame.
func IsCompressed(data []byte) bool {
	return len(data) >= frameHeaderSize && string(data[:4]) == frameMagic
}

// Decompress reverses Compress. Data that does not start with a frame is
// returned unchanged. Frame inconsistencies and checksum mismatches wrap
// ErrCorrupt.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}

	algo := Compression(data[4])
	rawSize := binary.LittleEndian.Uint64(data[5:])
	payloadSize := binary.LittleEndian.Uint64(data[13:])
	sum := binary.LittleEndian.Uint32(data[21:])

	if payloadSize != uint64(len(data)-frameHeaderSize) {
		return nil, fmt.Errorf("%w: frame payload %d bytes, have %d", ErrCorrupt, payloadSize, len(data)-frameHeaderSize)
	}
	payload := data[frameHeaderSize:]

	var raw []byte
	switch algo {
	case CompressionNone:
		raw = payload
	case CompressionLZ4:
		// Bounded by the maximum LZ4 expansion ratio.
		if rawSize > uint64(len(payload))*255+16 {
			return nil, fmt.Errorf("%w: implausible raw size %d", ErrCorrupt, rawSize)
		}
		raw = make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		raw = raw[:n]
	case CompressionZSTD:
		out, err := decodeZstd(payload, rawSize)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		raw = out
	default:
		return nil, fmt.Errorf("%w: %w %d", ErrCorrupt, errUnknownAlgo, uint8(algo))
	}

	if uint64(len(raw)) != rawSize {
		return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, len(raw), rawSize)
	}
	if hash.CRC32C(raw) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return raw, nil
}
