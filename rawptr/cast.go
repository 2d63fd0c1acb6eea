package rawptr

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rawptr/memutils"
)

// CastConst reinterprets a read-only handle as pointing to a different element type.
// Length and offset carry over unchanged and remain in the original type's units, so
// the caller is responsible for layout compatibility between U and T and for whether
// the counts still mean anything. The resulting handle borrows the block, leaving the
// original handle with sole responsibility for deallocation. Casting a null handle
// fails.
func CastConst[U, T memutils.Scalar](p *ConstPtr[T]) (*ConstPtr[U], error) {
	if p.IsNull() {
		return nil, errors.Wrapf(memutils.NilPointerError, "cannot cast a null handle")
	}

	return &ConstPtr[U]{
		ptr:    p.ptr,
		length: p.length,
		offset: p.offset,
	}, nil
}

// CastMut reinterprets a read-write handle as pointing to a different element type,
// under the same caller contract as CastConst. The resulting handle borrows the block.
// Casting a null handle fails.
func CastMut[U, T memutils.Scalar](p *MutPtr[T]) (*MutPtr[U], error) {
	if p.IsNull() {
		return nil, errors.Wrapf(memutils.NilPointerError, "cannot cast a null handle")
	}

	return &MutPtr[U]{
		ptr:    p.ptr,
		length: p.length,
		offset: p.offset,
	}, nil
}
