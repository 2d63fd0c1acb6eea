package allocator

import (
	"sync"
	"unsafe"

	"github.com/dolthub/swiss"
)

// TrackingBackend decorates another Backend with exact bookkeeping of live blocks. It
// exists for tests and diagnostics that need to prove a block was freed exactly once.
// Unknown or repeated frees are recorded rather than forwarded, so a misbehaving caller
// can be observed without corrupting the parent backend.
type TrackingBackend struct {
	mutex  sync.Mutex
	parent Backend
	live   *swiss.Map[uintptr, uintptr]

	allocated uint64
	freed     uint64
	badFrees  int
}

func NewTrackingBackend(parent Backend) *TrackingBackend {
	if parent == nil {
		panic("attempted to create a tracking backend with a nil parent backend")
	}

	return &TrackingBackend{
		parent: parent,
		live:   swiss.NewMap[uintptr, uintptr](42),
	}
}

func (t *TrackingBackend) Allocate(bytes uintptr) unsafe.Pointer {
	ptr := t.parent.Allocate(bytes)
	if ptr == nil {
		return nil
	}

	t.mutex.Lock()
	t.live.Put(uintptr(ptr), bytes)
	t.allocated++
	t.mutex.Unlock()

	return ptr
}

func (t *TrackingBackend) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	t.mutex.Lock()
	if !t.live.Has(uintptr(ptr)) {
		t.badFrees++
		t.mutex.Unlock()
		return
	}
	t.live.Delete(uintptr(ptr))
	t.freed++
	t.mutex.Unlock()

	t.parent.Deallocate(ptr)
}

// AllocationInfo reports the number of live blocks.
func (t *TrackingBackend) AllocationInfo() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return uint64(t.live.Count())
}

// TotalAllocations reports the lifetime count of successful Allocate calls.
func (t *TrackingBackend) TotalAllocations() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.allocated
}

// TotalFrees reports the lifetime count of Deallocate calls that released a live block.
func (t *TrackingBackend) TotalFrees() uint64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.freed
}

// BadFreeCount reports the number of Deallocate calls that named an address with no
// live block, which indicates a double free or a foreign pointer.
func (t *TrackingBackend) BadFreeCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.badFrees
}
