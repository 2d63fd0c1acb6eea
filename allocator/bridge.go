package allocator

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/rawptr/memutils"
	"golang.org/x/exp/slog"
)

// CreateOptions contains optional settings when creating an allocation bridge
type CreateOptions struct {
	// MemoryCallbackOptions is an optional set of callbacks that will be executed when
	// blocks are allocated from or returned to this bridge. It can be helpful in cases
	// when the consumer requires bridge-level info about block traffic
	MemoryCallbackOptions *MemoryCallbackOptions
}

// Bridge forwards allocation and deallocation requests to an external allocation
// Backend, applying the process's out-of-memory policy and keeping advisory telemetry
// about outstanding blocks.
//
// Allocate and Deallocate are safe to invoke concurrently from multiple goroutines.
// Thread safety of the underlying memory operations is delegated to the Backend.
type Bridge struct {
	backend   Backend
	logger    *slog.Logger
	callbacks memoryCallbacks

	mutex      sync.Mutex
	blockSizes *swiss.Map[uintptr, int]
	stats      memutils.DetailedStatistics
}

// New creates a Bridge that forwards to the provided Backend. A nil logger falls back
// to slog.Default.
func New(logger *slog.Logger, backend Backend, options CreateOptions) (*Bridge, error) {
	if backend == nil {
		return nil, errors.New("attempted to create an allocation bridge with a nil backend")
	}
	if logger == nil {
		logger = slog.Default()
	}

	bridge := &Bridge{
		backend:    backend,
		logger:     logger,
		blockSizes: swiss.NewMap[uintptr, int](42),
	}
	bridge.stats.Clear()
	bridge.callbacks = memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Bridge:    bridge,
	}

	return bridge, nil
}

// Allocate requests a block of the given byte size from the backend. Zero-byte requests
// are clamped to a single byte so that every successful allocation has a unique live
// address. A backend failure is an unrecoverable out-of-memory condition and panics,
// matching the runtime's allocation-failure contract.
func (b *Bridge) Allocate(size int) unsafe.Pointer {
	if size < 0 {
		panic(fmt.Sprintf("attempted to allocate a negative number of bytes: %d", size))
	}
	if size == 0 {
		size = 1
	}

	ptr := b.backend.Allocate(uintptr(size + memutils.DebugMargin))
	if ptr == nil {
		panic(fmt.Sprintf("out of memory: the allocation backend could not provide a block of %d bytes", size))
	}
	if memutils.DebugMargin > 0 {
		memutils.WriteMagicValue(ptr, size)
	}

	b.mutex.Lock()
	b.blockSizes.Put(uintptr(ptr), size)
	b.stats.AddAllocation(size)
	b.mutex.Unlock()

	b.logger.Debug("Bridge::Allocate",
		slog.Int("Size", size),
		slog.String("Address", fmt.Sprintf("0x%x", uintptr(ptr))),
	)
	b.callbacks.Allocate(ptr, size)

	return ptr
}

// Deallocate returns a block previously produced by Allocate to the backend. A nil
// address is a safe no-op. Addresses that are not live blocks of this bridge indicate a
// double free or a foreign pointer and panic.
func (b *Bridge) Deallocate(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	b.mutex.Lock()
	size, ok := b.blockSizes.Get(uintptr(ptr))
	if !ok {
		b.mutex.Unlock()
		panic(fmt.Sprintf("attempted to deallocate address 0x%x, which is not a live block of this bridge: double free or foreign pointer", uintptr(ptr)))
	}
	b.blockSizes.Delete(uintptr(ptr))
	b.stats.RemoveAllocation(size)
	b.mutex.Unlock()

	if memutils.DebugMargin > 0 && !memutils.ValidateMagicValue(ptr, size) {
		panic(fmt.Sprintf("memory corruption detected beyond the end of the block at 0x%x", uintptr(ptr)))
	}

	b.callbacks.Free(ptr, size)
	b.backend.Deallocate(ptr)

	b.logger.Debug("Bridge::Deallocate",
		slog.Int("Size", size),
		slog.String("Address", fmt.Sprintf("0x%x", uintptr(ptr))),
	)
}

// AllocationInfo reports the number of blocks allocated through this bridge that have
// not yet been deallocated. It is purely advisory and must not be used to drive
// control flow.
func (b *Bridge) AllocationInfo() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return uint64(b.stats.AllocationCount)
}

// Statistics returns a snapshot of this bridge's outstanding-allocation telemetry.
func (b *Bridge) Statistics() memutils.DetailedStatistics {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.stats
}

// BuildStatsString writes a JSON dump of this bridge's telemetry, suitable for logs
// and diagnostics.
func (b *Bridge) BuildStatsString() string {
	writer := jwriter.NewWriter()

	obj := writer.Object()
	stats := b.Statistics()
	stats.PrintJSON(obj)

	backendObj := obj.Name("Backend").Object()
	backendObj.Name("AllocationInfo").Int(int(b.backend.AllocationInfo()))
	backendObj.End()

	obj.End()

	return string(writer.Bytes())
}
