package rawptr

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/rawptr/allocator"
	"github.com/vkngwrapper/rawptr/memutils"
)

// ConstPtr is a read-only handle over a raw address within a block of Scalar elements.
// It tracks the block's element count and the handle's current logical position, and
// every navigation or access operation is checked against those before any address is
// dereferenced.
//
// A handle is either owning, meaning it allocated its block through an allocation
// bridge and will deallocate it in Free, or borrowing, meaning the memory belongs to
// someone else and the handle will never deallocate it. The distinction is fixed at
// construction time: NewConst borrows, AllocConst owns.
//
// Handles carry no internal synchronization and are intended to be held by a single
// owner at a time.
type ConstPtr[T memutils.Scalar] struct {
	ptr    unsafe.Pointer
	length int
	offset int
	owned  bool
	bridge *allocator.Bridge
}

// NewConst wraps a caller-supplied address in a borrowing read-only handle. The address
// is presumed correctly allocated for length elements of T, with offset elements
// already applied, regardless of which allocator produced it. A nil address, a
// misaligned address, or an offset outside [0, length) is a caller bug and panics.
func NewConst[T memutils.Scalar](ptr unsafe.Pointer, length, offset int) *ConstPtr[T] {
	validateHandle[T](ptr, length, offset)

	return &ConstPtr[T]{
		ptr:    ptr,
		length: length,
		offset: offset,
	}
}

// AllocConst allocates a block of length elements through the bridge, writes the
// initial data into it, and returns an owning read-only handle positioned at offset.
// A nil bridge selects the process-wide default. The request fails when length is not
// positive, offset is outside [0, length), or data is empty or larger than the block.
func AllocConst[T memutils.Scalar](bridge *allocator.Bridge, data []T, length, offset int) (*ConstPtr[T], error) {
	base, bridge, err := allocBlock[T](bridge, data, length, offset)
	if err != nil {
		return nil, err
	}

	handle := &ConstPtr[T]{
		ptr:    unsafe.Add(base, offset*int(sizeOf[T]())),
		length: length,
		offset: offset,
		owned:  true,
		bridge: bridge,
	}
	memutils.DebugValidate(handle)

	return handle, nil
}

// NullConst returns the null sentinel handle, a safe placeholder that can later be
// replaced by a live handle.
func NullConst[T memutils.Scalar]() *ConstPtr[T] {
	return &ConstPtr[T]{}
}

func (p *ConstPtr[T]) IsNull() bool {
	return p.ptr == nil
}

// CheckAlignment reports whether the handle is non-null and its address is a multiple
// of the element type's alignment.
func (p *ConstPtr[T]) CheckAlignment() bool {
	return p.ptr != nil && memutils.IsAligned(uintptr(p.ptr), alignOf[T]())
}

// CheckBounds reports whether the current offset lies within the block's valid index
// range.
func (p *ConstPtr[T]) CheckBounds() bool {
	return p.offset >= 0 && p.offset < p.length
}

func (p *ConstPtr[T]) Offset() int {
	return p.offset
}

func (p *ConstPtr[T]) Length() int {
	return p.length
}

// Address returns the numeric value of the current element's address.
func (p *ConstPtr[T]) Address() uintptr {
	return uintptr(p.ptr)
}

// SizeOf returns the size of the element type in bytes.
func (p *ConstPtr[T]) SizeOf() uintptr {
	return sizeOf[T]()
}

// IsOwner reports whether this handle will deallocate its block when freed.
func (p *ConstPtr[T]) IsOwner() bool {
	return p.owned
}

// ChangeOffset moves the handle delta elements within its block. The offset and the
// address move together as a single update: on failure the handle is completely
// unchanged.
func (p *ConstPtr[T]) ChangeOffset(delta int) error {
	err := p.checkLive()
	if err != nil {
		return err
	}

	newOffset := p.offset + delta
	if newOffset < 0 || newOffset >= p.length {
		return errors.Wrapf(memutils.OutOfBoundsError, "moving %d elements from offset %d leaves the valid range [0, %d)", delta, p.offset, p.length)
	}

	p.ptr = unsafe.Add(p.ptr, delta*int(sizeOf[T]()))
	p.offset = newOffset
	memutils.DebugValidate(p)

	return nil
}

// ChangeLength replaces the handle's view of how many elements its block holds. The
// caller is responsible for the block actually holding newLength elements. The request
// fails when newLength is not positive or the current offset would fall outside the
// new length.
func (p *ConstPtr[T]) ChangeLength(newLength int) error {
	err := p.checkLive()
	if err != nil {
		return err
	}

	if newLength <= 0 {
		return errors.Wrapf(memutils.InvalidLengthError, "cannot change the block length to %d", newLength)
	}
	if p.offset >= newLength {
		return errors.Wrapf(memutils.OutOfBoundsError, "current offset %d is not within the new length %d", p.offset, newLength)
	}

	p.length = newLength
	memutils.DebugValidate(p)

	return nil
}

// Access returns the value of the current element. It fails rather than dereference a
// null or misaligned address.
func (p *ConstPtr[T]) Access() (T, error) {
	var empty T

	err := p.checkLive()
	if err != nil {
		return empty, err
	}

	return *(*T)(p.ptr), nil
}

// Ref returns a pointer to the current element. It fails rather than produce a
// reference through a null or misaligned address.
func (p *ConstPtr[T]) Ref() (*T, error) {
	err := p.checkLive()
	if err != nil {
		return nil, err
	}

	return (*T)(p.ptr), nil
}

// Release transfers ownership of the block out of the handle. It returns the current
// element's address and leaves the handle null without deallocating anything: the
// caller becomes solely responsible for the memory's ultimate deallocation.
func (p *ConstPtr[T]) Release() (uintptr, error) {
	err := p.checkLive()
	if err != nil {
		return 0, err
	}

	addr := uintptr(p.ptr)
	p.reset()

	return addr, nil
}

// ReleaseValue reads the current element, ends the handle's life, and returns the
// value. An owning handle deallocates its block through the bridge on the way out.
func (p *ConstPtr[T]) ReleaseValue() (T, error) {
	var empty T

	err := p.checkLive()
	if err != nil {
		return empty, err
	}

	value := *(*T)(p.ptr)
	p.Free()

	return value, nil
}

// SetNull invalidates the handle without deallocating, for handles that only borrow
// foreign or externally-owned memory.
func (p *ConstPtr[T]) SetNull() {
	p.reset()
}

// AsMut produces a mutable handle aliasing the same address, length, and offset. The
// alias borrows the block: it can never deallocate, so only this handle's lifecycle
// controls the memory.
func (p *ConstPtr[T]) AsMut() *MutPtr[T] {
	return &MutPtr[T]{
		ptr:    p.ptr,
		length: p.length,
		offset: p.offset,
	}
}

// Free is the handle's deterministic cleanup. An owning, non-null handle deallocates
// its block through the bridge exactly once; a borrowing handle just becomes null.
// Free is idempotent and safe to defer.
func (p *ConstPtr[T]) Free() {
	if p.ptr != nil && p.owned && p.bridge != nil {
		base := unsafe.Add(p.ptr, -p.offset*int(sizeOf[T]()))
		p.bridge.Deallocate(base)
	}
	p.reset()
}

// Validate checks the handle's internal invariants. The null sentinel is valid.
func (p *ConstPtr[T]) Validate() error {
	if p.ptr == nil {
		if p.length != 0 || p.offset != 0 || p.owned {
			return errors.New("a null handle must have zero length and offset and cannot own memory")
		}
		return nil
	}
	if !memutils.IsAligned(uintptr(p.ptr), alignOf[T]()) {
		return errors.Wrapf(memutils.MisalignedPointerError, "address 0x%x is not a multiple of %d", uintptr(p.ptr), alignOf[T]())
	}
	if !p.CheckBounds() {
		return errors.Wrapf(memutils.OutOfBoundsError, "offset %d is not within the valid range [0, %d)", p.offset, p.length)
	}
	if p.owned && p.bridge == nil {
		return errors.New("an owning handle must remember the bridge that allocated its block")
	}

	return nil
}

// PrintJSON writes the handle's parameters into a diagnostics JSON object.
func (p *ConstPtr[T]) PrintJSON(json jwriter.ObjectState) {
	json.Name("Address").String(fmt.Sprintf("0x%x", uintptr(p.ptr)))
	json.Name("Length").Int(p.length)
	json.Name("Offset").Int(p.offset)
	json.Name("Owned").Bool(p.owned)
}

func (p *ConstPtr[T]) checkLive() error {
	if p.ptr == nil {
		return errors.Wrapf(memutils.NilPointerError, "the handle is null")
	}
	if !memutils.IsAligned(uintptr(p.ptr), alignOf[T]()) {
		return errors.Wrapf(memutils.MisalignedPointerError, "address 0x%x is not a multiple of %d", uintptr(p.ptr), alignOf[T]())
	}

	return nil
}

func (p *ConstPtr[T]) reset() {
	p.ptr = nil
	p.length = 0
	p.offset = 0
	p.owned = false
	p.bridge = nil
}
