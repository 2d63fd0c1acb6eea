package rawptr

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rawptr/allocator"
	"github.com/vkngwrapper/rawptr/memutils"
)

func sizeOf[T memutils.Scalar]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

func alignOf[T memutils.Scalar]() uintptr {
	var zero T
	return unsafe.Alignof(zero)
}

// validateHandle enforces the construction contract shared by NewConst and NewMut.
// Violations indicate a caller bug rather than a runtime condition, so they panic
// instead of returning an error.
func validateHandle[T memutils.Scalar](ptr unsafe.Pointer, length, offset int) {
	if ptr == nil {
		panic("attempted to create a handle from a nil address: use NullConst or NullMut for the null sentinel")
	}
	if !memutils.IsAligned(uintptr(ptr), alignOf[T]()) {
		panic(fmt.Sprintf("attempted to create a handle at address 0x%x, which is not aligned to its %d-byte element type", uintptr(ptr), alignOf[T]()))
	}
	if offset < 0 || offset >= length {
		panic(fmt.Sprintf("attempted to create a handle with offset %d, which is not within the valid range [0, %d)", offset, length))
	}
}

// allocBlock performs the shared work of the allocating constructors: it requests a
// block sized for length elements from the bridge and copies the initial data into it.
// The returned address is the block's base.
func allocBlock[T memutils.Scalar](bridge *allocator.Bridge, data []T, length, offset int) (unsafe.Pointer, *allocator.Bridge, error) {
	if bridge == nil {
		bridge = allocator.Default()
	}
	if length <= 0 {
		return nil, nil, errors.Wrapf(memutils.InvalidLengthError, "cannot allocate a block of %d elements", length)
	}
	if offset < 0 || offset >= length {
		return nil, nil, errors.Wrapf(memutils.OutOfBoundsError, "initial offset %d is not within the valid range [0, %d)", offset, length)
	}
	if len(data) == 0 || len(data) > length {
		return nil, nil, errors.Wrapf(memutils.InvalidLengthError, "initial data holds %d elements, but the block holds %d", len(data), length)
	}

	base := bridge.Allocate(length * int(sizeOf[T]()))
	copy(unsafe.Slice((*T)(base), length), data)

	return base, bridge, nil
}
