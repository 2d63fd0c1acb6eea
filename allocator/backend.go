package allocator

import "unsafe"

// Backend is the external allocation boundary that a Bridge forwards to. A Backend may
// be implemented in Go or may sit directly in front of a foreign allocator such as the
// C runtime's malloc.
//
// Implementations must be safe to invoke concurrently from multiple goroutines, since a
// bridge installed as the process default backs allocation on every goroutine.
type Backend interface {
	// Allocate produces a block of at least the requested number of bytes, aligned
	// suitably for any Scalar element type. It returns nil when the backend cannot
	// satisfy the request, and the caller decides how to handle that failure.
	Allocate(bytes uintptr) unsafe.Pointer
	// Deallocate returns a block produced by Allocate to the backend. Passing an
	// address that is not a live block of this backend, or passing the same address
	// twice, is a caller error.
	Deallocate(ptr unsafe.Pointer)
	// AllocationInfo reports the number of outstanding blocks the backend is aware of.
	// It is purely advisory. Implementations that do not track their blocks may
	// return 0.
	AllocationInfo() uint64
}
