// Package mem provides aligned float32 storage for the similarity kernels.
//
// # Aligned Allocation
//
// AllocAlignedFloat32 returns 64-byte aligned buffers. Slab carves many
// fixed-size aligned rows out of large chunks so that a table with millions
// of rows does not pay one allocation per row.
package mem
