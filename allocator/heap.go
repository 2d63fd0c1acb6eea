package allocator

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dolthub/swiss"
)

// heapAlignment is the alignment of every block returned by HeapBackend. It exceeds the
// alignment requirement of every Scalar element type.
const heapAlignment uintptr = 64

// HeapBackend carves backend blocks out of ordinary Go heap memory. Each block's backing
// slice is pinned in a live registry so the garbage collector cannot reclaim it while a
// pointer handle or foreign code still refers to its address.
//
// HeapBackend is safe to use from multiple goroutines.
type HeapBackend struct {
	mutex  sync.Mutex
	blocks *swiss.Map[uintptr, []byte]
}

func NewHeapBackend() *HeapBackend {
	return &HeapBackend{
		blocks: swiss.NewMap[uintptr, []byte](42),
	}
}

func (h *HeapBackend) Allocate(bytes uintptr) unsafe.Pointer {
	if bytes == 0 {
		bytes = 1
	}

	// Over-allocate so the returned address can be shifted up to heapAlignment
	buf := make([]byte, bytes+heapAlignment)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (addr + heapAlignment - 1) &^ (heapAlignment - 1)

	h.mutex.Lock()
	h.blocks.Put(aligned, buf)
	h.mutex.Unlock()

	return unsafe.Pointer(&buf[aligned-addr])
}

func (h *HeapBackend) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.blocks.Has(uintptr(ptr)) {
		panic(fmt.Sprintf("attempted to deallocate address 0x%x, which was not allocated by this backend", uintptr(ptr)))
	}
	h.blocks.Delete(uintptr(ptr))
}

func (h *HeapBackend) AllocationInfo() uint64 {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return uint64(h.blocks.Count())
}
