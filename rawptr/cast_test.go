package rawptr_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rawptr/memutils"
	"github.com/vkngwrapper/rawptr/rawptr"
)

func TestCastNullHandleFails(t *testing.T) {
	_, err := rawptr.CastConst[int64](rawptr.NullConst[int32]())
	require.ErrorIs(t, err, memutils.NilPointerError)

	_, err = rawptr.CastMut[int64](rawptr.NullMut[int32]())
	require.ErrorIs(t, err, memutils.NilPointerError)
}

func TestCastPreservesAddressAndCounts(t *testing.T) {
	block := [4]int32{1, 2, 3, 4}
	handle := rawptr.NewConst[int32](unsafe.Pointer(&block[0]), 4, 0)

	cast, err := rawptr.CastConst[int16](handle)
	require.NoError(t, err)
	require.Equal(t, handle.Address(), cast.Address())
	require.Equal(t, handle.Length(), cast.Length())
	require.Equal(t, handle.Offset(), cast.Offset())

	// The cast handle is an alias and can never deallocate the block
	require.False(t, cast.IsOwner())
}

func TestCastMutSharesTheBlock(t *testing.T) {
	block := [2]uint32{0xAABBCCDD, 0}
	handle := rawptr.NewMut[uint32](unsafe.Pointer(&block[0]), 2, 0)

	cast, err := rawptr.CastMut[uint16](handle)
	require.NoError(t, err)

	// Reinterpreting the first element reads its low half on little-endian
	// machines and its high half on big-endian ones
	value, err := cast.Access()
	require.NoError(t, err)
	require.Contains(t, []uint16{0xCCDD, 0xAABB}, value)

	require.NoError(t, cast.Write(0x1111))
	require.NotEqual(t, uint32(0xAABBCCDD), block[0])
}

func TestCastOwnedHandleKeepsOwnerResponsible(t *testing.T) {
	bridge, backend := testBridge(t)

	owner, err := rawptr.AllocMut[int64](bridge, []int64{1, 2}, 2, 0)
	require.NoError(t, err)

	cast, err := rawptr.CastMut[int32](owner)
	require.NoError(t, err)

	cast.Free()
	require.EqualValues(t, 0, backend.TotalFrees())

	owner.Free()
	require.EqualValues(t, 1, backend.TotalFrees())
}
