package mem

// DefaultChunkBytes is the target size of one slab chunk.
const DefaultChunkBytes = 1 << 20

// Slab is an append-only allocator for rows of a fixed dimension.
//
// Each row starts on an Alignment boundary: the row stride is the dimension
// rounded up to a multiple of Alignment/4 floats. Rows are never freed
// individually; the whole slab is released with Reset or when it becomes
// unreachable.
//
// Slab is not safe for concurrent use.
type Slab struct {
	dim          int
	stride       int
	rowsPerChunk int
	chunks       [][]float32
	used         int // rows handed out from the last chunk
	rows         int
}

// NewSlab creates a slab for rows of dim floats. chunkBytes <= 0 selects
// DefaultChunkBytes; a chunk always holds at least one row.
func NewSlab(dim, chunkBytes int) *Slab {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	const lane = Alignment / 4
	stride := (dim + lane - 1) / lane * lane
	if stride == 0 {
		stride = lane
	}
	perChunk := chunkBytes / (stride * 4)
	if perChunk < 1 {
		perChunk = 1
	}
	return &Slab{
		dim:          dim,
		stride:       stride,
		rowsPerChunk: perChunk,
	}
}

// Alloc returns a new aligned row of length and capacity dim.
func (s *Slab) Alloc() []float32 {
	if len(s.chunks) == 0 || s.used == s.rowsPerChunk {
		s.chunks = append(s.chunks, AllocAlignedFloat32(s.stride*s.rowsPerChunk))
		s.used = 0
	}
	chunk := s.chunks[len(s.chunks)-1]
	off := s.used * s.stride
	s.used++
	s.rows++
	return chunk[off : off+s.dim : off+s.dim]
}

// Dim returns the row dimension.
func (s *Slab) Dim() int { return s.dim }

// Rows returns the number of rows handed out.
func (s *Slab) Rows() int { return s.rows }

// RowBytes returns the bytes reserved per row, including alignment padding.
func (s *Slab) RowBytes() int64 { return int64(s.stride) * 4 }

// ReservedBytes returns the bytes held by all chunks.
func (s *Slab) ReservedBytes() int64 {
	return int64(len(s.chunks)) * int64(s.rowsPerChunk) * s.RowBytes()
}

// Reset drops every chunk. Rows handed out earlier stay valid for as long as
// the caller references them, but the slab no longer tracks them.
func (s *Slab) Reset() {
	s.chunks = nil
	s.used = 0
	s.rows = 0
}
