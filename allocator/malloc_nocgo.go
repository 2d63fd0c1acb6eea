//go:build !raw_ptr_cgo

package allocator

import "unsafe"

// MallocBackend forwards allocation to the C runtime's malloc and free when built with
// the raw_ptr_cgo build tag. This fallback keeps the same surface on pure-Go builds by
// delegating to a HeapBackend.
type MallocBackend struct {
	heap *HeapBackend
}

func NewMallocBackend() *MallocBackend {
	return &MallocBackend{
		heap: NewHeapBackend(),
	}
}

func (m *MallocBackend) Allocate(bytes uintptr) unsafe.Pointer {
	return m.heap.Allocate(bytes)
}

func (m *MallocBackend) Deallocate(ptr unsafe.Pointer) {
	m.heap.Deallocate(ptr)
}

func (m *MallocBackend) AllocationInfo() uint64 {
	return m.heap.AllocationInfo()
}
