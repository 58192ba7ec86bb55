// Package persistence encodes vector tables in a compact binary layout.
//
// # Table Layout
//
// All fields are little-endian:
//
//	[int32 entry_count]                 // includes the zero sentinel row
//	[int32 dim]
//	[entry_count * dim float32 values]  // row-major, index order
//
// The layout carries no magic or checksum; integrity checks are limited to
// header sanity and the declared size matching the available bytes.
//
// # Compressed Frames
//
// Compress wraps an encoded table in a small frame (magic, algorithm,
// sizes, CRC32C) holding either an LZ4 block or a zstd stream.
package persistence
