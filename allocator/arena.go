package allocator

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rawptr/memutils"
)

const (
	defaultArenaChunkSize uintptr = 64 * 1024
	arenaAlign            uintptr = 16
)

// arenaPrefix is the bookkeeping header written immediately before every block the
// arena hands out: the index of the owning chunk and the rounded block size.
type arenaPrefix struct {
	chunkIndex uintptr
	size       uintptr
}

const arenaHeader = unsafe.Sizeof(arenaPrefix{})

type arenaChunk struct {
	index     int
	base      unsafe.Pointer
	size      uintptr
	off       uintptr
	live      int
	dedicated bool
}

// ArenaBackend suballocates small blocks from large chunks requested from a parent
// Backend. A chunk only returns to reuse once every block inside it is dead, so the
// arena suits workloads that allocate and release in phases. Requests larger than the
// chunk size get a dedicated chunk of their own and return to the parent immediately
// on deallocation.
//
// ArenaBackend is safe to use from multiple goroutines.
type ArenaBackend struct {
	mutex     sync.Mutex
	parent    Backend
	chunkSize uintptr

	chunks    []*arenaChunk
	freeSlots []int
	reusable  []*arenaChunk
	current   *arenaChunk

	outstanding uint64
}

// NewArenaBackend creates an arena over the provided parent backend. chunkSize must be
// a power of two; zero selects the 64Kb default.
func NewArenaBackend(parent Backend, chunkSize uintptr) (*ArenaBackend, error) {
	if parent == nil {
		return nil, errors.New("attempted to create an arena backend with a nil parent backend")
	}
	if chunkSize == 0 {
		chunkSize = defaultArenaChunkSize
	}
	err := memutils.CheckPow2(chunkSize, "chunkSize")
	if err != nil {
		return nil, err
	}

	return &ArenaBackend{
		parent:    parent,
		chunkSize: chunkSize,
	}, nil
}

func (a *ArenaBackend) Allocate(bytes uintptr) unsafe.Pointer {
	if bytes == 0 {
		bytes = 1
	}
	need := (bytes + arenaHeader + arenaAlign - 1) &^ (arenaAlign - 1)

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if need > a.chunkSize {
		chunk := a.newChunk(need, true)
		if chunk == nil {
			return nil
		}
		return a.carve(chunk, need)
	}

	if a.current == nil || a.current.off+need > a.current.size {
		chunk := a.takeChunk()
		if chunk == nil {
			return nil
		}
		a.current = chunk
	}

	return a.carve(a.current, need)
}

func (a *ArenaBackend) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	// Resolve the owning chunk from the address alone, so a foreign pointer is
	// rejected without ever reading memory the arena does not own
	chunk := a.chunkContaining(ptr)
	if chunk == nil {
		panic(fmt.Sprintf("attempted to deallocate address 0x%x, which does not belong to a live arena chunk", uintptr(ptr)))
	}

	prefix := (*arenaPrefix)(unsafe.Add(ptr, -int(arenaHeader)))
	if int(prefix.chunkIndex) != chunk.index {
		panic(fmt.Sprintf("attempted to deallocate address 0x%x, which is not the start of an arena block", uintptr(ptr)))
	}
	chunk.live--
	a.outstanding--
	if chunk.live > 0 {
		return
	}

	if chunk.dedicated {
		a.releaseChunk(chunk)
		return
	}

	// Every block in the chunk is dead, so the whole chunk can be carved again
	chunk.off = 0
	if chunk != a.current {
		a.reusable = append(a.reusable, chunk)
	}
}

func (a *ArenaBackend) AllocationInfo() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.outstanding
}

// chunkContaining finds the live chunk whose block region covers addr. The first
// arenaHeader bytes of a chunk only ever hold the first block's prefix, so addresses
// inside them never name a block.
func (a *ArenaBackend) chunkContaining(ptr unsafe.Pointer) *arenaChunk {
	addr := uintptr(ptr)
	for _, chunk := range a.chunks {
		if chunk == nil {
			continue
		}
		base := uintptr(chunk.base)
		if addr >= base+arenaHeader && addr < base+chunk.size {
			return chunk
		}
	}

	return nil
}

func (a *ArenaBackend) carve(chunk *arenaChunk, need uintptr) unsafe.Pointer {
	ptr := unsafe.Add(chunk.base, chunk.off)
	*(*arenaPrefix)(ptr) = arenaPrefix{
		chunkIndex: uintptr(chunk.index),
		size:       need,
	}
	chunk.off += need
	chunk.live++
	a.outstanding++

	return unsafe.Add(ptr, arenaHeader)
}

func (a *ArenaBackend) takeChunk() *arenaChunk {
	if len(a.reusable) > 0 {
		chunk := a.reusable[len(a.reusable)-1]
		a.reusable = a.reusable[:len(a.reusable)-1]
		return chunk
	}

	return a.newChunk(a.chunkSize, false)
}

func (a *ArenaBackend) newChunk(size uintptr, dedicated bool) *arenaChunk {
	base := a.parent.Allocate(size)
	if base == nil {
		return nil
	}

	chunk := &arenaChunk{
		base:      base,
		size:      size,
		dedicated: dedicated,
	}
	if len(a.freeSlots) > 0 {
		chunk.index = a.freeSlots[len(a.freeSlots)-1]
		a.freeSlots = a.freeSlots[:len(a.freeSlots)-1]
		a.chunks[chunk.index] = chunk
	} else {
		chunk.index = len(a.chunks)
		a.chunks = append(a.chunks, chunk)
	}

	return chunk
}

func (a *ArenaBackend) releaseChunk(chunk *arenaChunk) {
	a.parent.Deallocate(chunk.base)
	a.chunks[chunk.index] = nil
	a.freeSlots = append(a.freeSlots, chunk.index)
}
