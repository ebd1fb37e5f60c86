package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("conv: integer overflow")

// Integer is the set of id types found in neighbor arrays.
type Integer interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64
}

// ToInt32 narrows v to int32.
func ToInt32[T Integer](v T) (int32, error) {
	if v < 0 {
		if int64(v) < math.MinInt32 {
			return 0, fmt.Errorf("%w: %d does not fit int32", ErrOverflow, v)
		}
	} else if uint64(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d does not fit int32", ErrOverflow, v)
	}
	return int32(v), nil
}
