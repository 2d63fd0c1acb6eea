package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

type Number interface {
	~int | ~uint | ~uintptr
}

// Scalar is the set of element types that a pointer handle can address. It is limited to
// pointer-free types on purpose: handle blocks live in memory the garbage collector does
// not scan for pointers, so an element type carrying a Go pointer would hide the only
// reference to its target from the collector. The type system cannot express "struct
// with no pointer fields", which rules out admitting struct element types at all.
type Scalar interface {
	constraints.Integer | constraints.Float
}

func CheckPow2[T Number](number T, name string) error {
	if number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}

// IsAligned reports whether addr is a multiple of alignment. alignment must be a power
// of two. The zero address is aligned to everything.
func IsAligned(addr uintptr, alignment uintptr) bool {
	return addr&(alignment-1) == 0
}
