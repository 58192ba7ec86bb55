package conv

import (
	"fmt"
	"math"
)

// IntToUint32 narrows a row index to the uint32 ids used by bitmaps and
// the key table.
func IntToUint32(v int) (uint32, error) {
	switch {
	case v < 0:
		return 0, fmt.Errorf("conv: %d is negative", v)
	case uint64(v) > math.MaxUint32:
		return 0, fmt.Errorf("conv: %d overflows uint32", v)
	}
	return uint32(v), nil
}

// Float64ToUint32 narrows a JSON number to a frequency. NaN, infinities,
// fractions and out-of-range values are rejected.
func Float64ToUint32(v float64) (uint32, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("conv: %v is not an integer", v)
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("conv: %v is outside uint32", v)
	}
	return uint32(v), nil
}
