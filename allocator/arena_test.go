package allocator_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rawptr/allocator"
)

func TestNewArenaBackendValidatesOptions(t *testing.T) {
	_, err := allocator.NewArenaBackend(nil, 0)
	require.Error(t, err)

	_, err = allocator.NewArenaBackend(allocator.NewHeapBackend(), 1000)
	require.ErrorContains(t, err, "power of two")
}

func TestArenaCarvesFromSharedChunks(t *testing.T) {
	parent := allocator.NewTrackingBackend(allocator.NewHeapBackend())
	arena, err := allocator.NewArenaBackend(parent, 1024)
	require.NoError(t, err)

	first := arena.Allocate(100)
	second := arena.Allocate(100)
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotEqual(t, first, second)
	require.EqualValues(t, 2, arena.AllocationInfo())

	// Both blocks fit in one parent chunk
	require.EqualValues(t, 1, parent.TotalAllocations())
}

func TestArenaReusesEmptiedChunks(t *testing.T) {
	parent := allocator.NewTrackingBackend(allocator.NewHeapBackend())
	arena, err := allocator.NewArenaBackend(parent, 1024)
	require.NoError(t, err)

	first := arena.Allocate(100)
	second := arena.Allocate(100)

	arena.Deallocate(first)
	arena.Deallocate(second)
	require.EqualValues(t, 0, arena.AllocationInfo())

	// The emptied chunk stays with the arena for reuse rather than returning
	// to the parent
	require.EqualValues(t, 0, parent.TotalFrees())

	third := arena.Allocate(50)
	require.NotNil(t, third)
	require.EqualValues(t, 1, parent.TotalAllocations())

	arena.Deallocate(third)
}

func TestArenaDedicatesOversizedBlocks(t *testing.T) {
	parent := allocator.NewTrackingBackend(allocator.NewHeapBackend())
	arena, err := allocator.NewArenaBackend(parent, 1024)
	require.NoError(t, err)

	ptr := arena.Allocate(4096)
	require.NotNil(t, ptr)
	require.EqualValues(t, 1, parent.TotalAllocations())
	require.EqualValues(t, 1, arena.AllocationInfo())

	// Dedicated chunks return to the parent immediately
	arena.Deallocate(ptr)
	require.EqualValues(t, 1, parent.TotalFrees())
	require.EqualValues(t, 0, arena.AllocationInfo())
}

func TestArenaRejectsForeignFrees(t *testing.T) {
	arena, err := allocator.NewArenaBackend(allocator.NewHeapBackend(), 1024)
	require.NoError(t, err)

	var local [64]byte
	require.Panics(t, func() {
		arena.Deallocate(unsafe.Pointer(&local[32]))
	})

	// A chunk's leading prefix region is never a block address either
	block := arena.Allocate(8)
	require.NotNil(t, block)
	require.Panics(t, func() {
		arena.Deallocate(unsafe.Add(block, -8))
	})
	arena.Deallocate(block)
	require.EqualValues(t, 0, arena.AllocationInfo())
}
