// Package hash provides the CRC32-Castagnoli checksums used by compressed
// table frames and object-store uploads.
//
// Go's hash/crc32 selects the SSE4.2 or ARMv8 CRC instructions when
// available.
package hash
