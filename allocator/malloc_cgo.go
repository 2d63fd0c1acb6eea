//go:build raw_ptr_cgo

package allocator

// #include <stdlib.h>
import "C"

import "unsafe"

// MallocBackend forwards allocation to the C runtime's malloc and free. This version is
// selected by the raw_ptr_cgo build tag. Thread safety is delegated to the C runtime.
type MallocBackend struct{}

func NewMallocBackend() *MallocBackend {
	return &MallocBackend{}
}

// Allocate returns whatever address the C runtime produced, including nil on failure,
// so the bridge can apply its own out-of-memory policy. calloc is used rather than
// malloc because cgo replaces C.malloc's failure behavior with an abort of its own.
func (MallocBackend) Allocate(bytes uintptr) unsafe.Pointer {
	if bytes == 0 {
		bytes = 1
	}
	return C.calloc(C.size_t(bytes), 1)
}

func (MallocBackend) Deallocate(ptr unsafe.Pointer) {
	if ptr != nil {
		C.free(ptr)
	}
}

func (MallocBackend) AllocationInfo() uint64 {
	return 0
}
