package rawptr_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rawptr/allocator"
	"github.com/vkngwrapper/rawptr/memutils"
	"github.com/vkngwrapper/rawptr/rawptr"
)

func testBridge(t *testing.T) (*allocator.Bridge, *allocator.TrackingBackend) {
	t.Helper()

	backend := allocator.NewTrackingBackend(allocator.NewHeapBackend())
	bridge, err := allocator.New(nil, backend, allocator.CreateOptions{})
	require.NoError(t, err)

	return bridge, backend
}

func TestNewMutValidatesContract(t *testing.T) {
	var block [5]int32
	base := unsafe.Pointer(&block[0])

	handle := rawptr.NewMut[int32](base, 5, 0)
	require.False(t, handle.IsNull())
	require.False(t, handle.IsOwner())
	require.True(t, handle.CheckAlignment())
	require.True(t, handle.CheckBounds())
	require.Equal(t, uintptr(base), handle.Address())
	require.Equal(t, uintptr(4), handle.SizeOf())

	require.Panics(t, func() {
		rawptr.NewMut[int32](unsafe.Add(base, 1), 5, 0)
	})
	require.Panics(t, func() {
		rawptr.NewMut[int32](base, 5, 5)
	})
	require.Panics(t, func() {
		rawptr.NewMut[int32](base, 5, -1)
	})
	require.Panics(t, func() {
		rawptr.NewMut[int32](nil, 5, 0)
	})
}

func TestNullMutIsSafePlaceholder(t *testing.T) {
	handle := rawptr.NullMut[int32]()
	require.True(t, handle.IsNull())
	require.False(t, handle.CheckAlignment())
	require.False(t, handle.CheckBounds())
	require.Equal(t, 0, handle.Length())
	require.Equal(t, 0, handle.Offset())
	require.NoError(t, handle.Validate())

	_, err := handle.Access()
	require.ErrorIs(t, err, memutils.NilPointerError)

	err = handle.Write(5)
	require.ErrorIs(t, err, memutils.NilPointerError)

	err = handle.ChangeOffset(1)
	require.ErrorIs(t, err, memutils.NilPointerError)

	// Freeing the sentinel is a harmless no-op
	handle.Free()
	require.True(t, handle.IsNull())
}

func TestNullMutRejectsLengthChanges(t *testing.T) {
	handle := rawptr.NullMut[int32]()

	err := handle.ChangeLength(5)
	require.ErrorIs(t, err, memutils.NilPointerError)
	require.Equal(t, 0, handle.Length())
	require.NoError(t, handle.Validate())
}

func TestAllocMutValidatesArguments(t *testing.T) {
	bridge, _ := testBridge(t)

	_, err := rawptr.AllocMut[int32](bridge, []int32{1}, 0, 0)
	require.ErrorIs(t, err, memutils.InvalidLengthError)

	_, err = rawptr.AllocMut[int32](bridge, []int32{1}, 3, 3)
	require.ErrorIs(t, err, memutils.OutOfBoundsError)

	_, err = rawptr.AllocMut[int32](bridge, nil, 3, 0)
	require.ErrorIs(t, err, memutils.InvalidLengthError)

	_, err = rawptr.AllocMut[int32](bridge, []int32{1, 2, 3, 4}, 3, 0)
	require.ErrorIs(t, err, memutils.InvalidLengthError)
}

func TestChangeOffsetRoundTripRestoresAddress(t *testing.T) {
	bridge, _ := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{1, 2, 3, 4, 5}, 5, 0)
	require.NoError(t, err)
	defer handle.Free()

	addr := handle.Address()
	require.NoError(t, handle.ChangeOffset(3))
	require.Equal(t, 3, handle.Offset())
	require.Equal(t, addr+3*handle.SizeOf(), handle.Address())

	require.NoError(t, handle.ChangeOffset(-3))
	require.Equal(t, 0, handle.Offset())
	require.Equal(t, addr, handle.Address())
}

func TestChangeOffsetFailureLeavesHandleUnchanged(t *testing.T) {
	bridge, _ := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{1, 2, 3}, 3, 1)
	require.NoError(t, err)
	defer handle.Free()

	addr := handle.Address()

	err = handle.ChangeOffset(5)
	require.ErrorIs(t, err, memutils.OutOfBoundsError)
	require.Equal(t, 1, handle.Offset())
	require.Equal(t, addr, handle.Address())

	err = handle.ChangeOffset(-2)
	require.ErrorIs(t, err, memutils.OutOfBoundsError)
	require.Equal(t, 1, handle.Offset())
	require.Equal(t, addr, handle.Address())
}

func TestChangeLength(t *testing.T) {
	bridge, _ := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{1, 2, 3, 4, 5}, 5, 2)
	require.NoError(t, err)
	defer handle.Free()

	err = handle.ChangeLength(0)
	require.ErrorIs(t, err, memutils.InvalidLengthError)
	require.Equal(t, 5, handle.Length())

	// Shrinking below the current offset fails with the handle unchanged
	err = handle.ChangeLength(2)
	require.ErrorIs(t, err, memutils.OutOfBoundsError)
	require.Equal(t, 5, handle.Length())

	require.NoError(t, handle.ChangeLength(3))
	require.Equal(t, 3, handle.Length())
}

func TestWriteThenAccess(t *testing.T) {
	bridge, _ := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{7}, 1, 0)
	require.NoError(t, err)
	defer handle.Free()

	value, err := handle.Access()
	require.NoError(t, err)
	require.Equal(t, int32(7), value)

	require.NoError(t, handle.Write(42))

	value, err = handle.Access()
	require.NoError(t, err)
	require.Equal(t, int32(42), value)

	ref, err := handle.MutRef()
	require.NoError(t, err)
	*ref = 99

	value, err = handle.Access()
	require.NoError(t, err)
	require.Equal(t, int32(99), value)
}

func TestWriteWalkAcrossBlock(t *testing.T) {
	bridge, backend := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{1, 2, 3, 4, 5}, 5, 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		if i > 0 {
			require.NoError(t, handle.ChangeOffset(1))
		}
		require.NoError(t, handle.Write(100))

		value, err := handle.Access()
		require.NoError(t, err)
		require.Equal(t, int32(100), value)
	}

	// Walk back across the block and confirm no write bled into a neighbor
	for i := 4; i >= 0; i-- {
		value, err := handle.Access()
		require.NoError(t, err)
		require.Equal(t, int32(100), value)

		if i > 0 {
			require.NoError(t, handle.ChangeOffset(-1))
		}
	}

	handle.Free()
	require.True(t, handle.IsNull())
	require.EqualValues(t, 0, backend.AllocationInfo())
}

func TestReleaseTransfersOwnershipOut(t *testing.T) {
	bridge, backend := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{11, 22}, 2, 0)
	require.NoError(t, err)
	require.True(t, handle.IsOwner())

	addr, err := handle.Release()
	require.NoError(t, err)
	require.NotZero(t, addr)
	require.True(t, handle.IsNull())

	// The handle no longer owns the block, so cleanup must not deallocate
	handle.Free()
	require.EqualValues(t, 1, backend.TotalAllocations())
	require.EqualValues(t, 0, backend.TotalFrees())
	require.Equal(t, 0, backend.BadFreeCount())
}

func TestReleaseValueFreesOwnedBlock(t *testing.T) {
	bridge, backend := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{33}, 1, 0)
	require.NoError(t, err)

	value, err := handle.ReleaseValue()
	require.NoError(t, err)
	require.Equal(t, int32(33), value)
	require.True(t, handle.IsNull())
	require.EqualValues(t, 1, backend.TotalFrees())

	_, err = handle.ReleaseValue()
	require.ErrorIs(t, err, memutils.NilPointerError)
}

func TestSetNullDoesNotDeallocate(t *testing.T) {
	bridge, backend := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{1}, 1, 0)
	require.NoError(t, err)

	handle.SetNull()
	require.True(t, handle.IsNull())

	handle.Free()
	require.EqualValues(t, 0, backend.TotalFrees())
}

func TestAliasedHandlesFreeExactlyOnce(t *testing.T) {
	bridge, backend := testBridge(t)

	owner, err := rawptr.AllocMut[int32](bridge, []int32{5}, 1, 0)
	require.NoError(t, err)

	alias := owner.AsConst()
	require.False(t, alias.IsOwner())
	require.Equal(t, owner.Address(), alias.Address())
	require.Equal(t, owner.Length(), alias.Length())

	// Dropping the borrowing alias must not touch the block
	alias.Free()
	require.EqualValues(t, 0, backend.TotalFrees())

	value, err := owner.Access()
	require.NoError(t, err)
	require.Equal(t, int32(5), value)

	owner.Free()
	require.EqualValues(t, 1, backend.TotalFrees())

	// Cleanup after the owner already freed must not double-free
	owner.Free()
	require.EqualValues(t, 1, backend.TotalFrees())
	require.Equal(t, 0, backend.BadFreeCount())
}

func TestFreeUsesBlockBaseAfterNavigation(t *testing.T) {
	bridge, backend := testBridge(t)

	handle, err := rawptr.AllocMut[int32](bridge, []int32{1, 2, 3, 4}, 4, 0)
	require.NoError(t, err)

	// Move the handle into the middle of the block before cleanup
	require.NoError(t, handle.ChangeOffset(2))

	handle.Free()
	require.EqualValues(t, 1, backend.TotalFrees())
	require.Equal(t, 0, backend.BadFreeCount())
}
