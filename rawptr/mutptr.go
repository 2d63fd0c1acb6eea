package rawptr

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/rawptr/allocator"
	"github.com/vkngwrapper/rawptr/memutils"
)

// MutPtr is the read-write counterpart of ConstPtr: a handle over a raw address within
// a block of Scalar elements that additionally permits writing through the address. It
// tracks the same triple of address, block length, and logical offset, with the same
// checks performed before any dereference.
//
// Ownership follows the same discipline as ConstPtr: NewMut borrows, AllocMut owns,
// and the distinction is fixed at construction time.
type MutPtr[T memutils.Scalar] struct {
	ptr    unsafe.Pointer
	length int
	offset int
	owned  bool
	bridge *allocator.Bridge
}

// NewMut wraps a caller-supplied address in a borrowing read-write handle. The address
// is presumed correctly allocated for length elements of T, with offset elements
// already applied, regardless of which allocator produced it. A nil address, a
// misaligned address, or an offset outside [0, length) is a caller bug and panics.
func NewMut[T memutils.Scalar](ptr unsafe.Pointer, length, offset int) *MutPtr[T] {
	validateHandle[T](ptr, length, offset)

	return &MutPtr[T]{
		ptr:    ptr,
		length: length,
		offset: offset,
	}
}

// AllocMut allocates a block of length elements through the bridge, writes the initial
// data into it, and returns an owning read-write handle positioned at offset. A nil
// bridge selects the process-wide default. The request fails when length is not
// positive, offset is outside [0, length), or data is empty or larger than the block.
func AllocMut[T memutils.Scalar](bridge *allocator.Bridge, data []T, length, offset int) (*MutPtr[T], error) {
	base, bridge, err := allocBlock[T](bridge, data, length, offset)
	if err != nil {
		return nil, err
	}

	handle := &MutPtr[T]{
		ptr:    unsafe.Add(base, offset*int(sizeOf[T]())),
		length: length,
		offset: offset,
		owned:  true,
		bridge: bridge,
	}
	memutils.DebugValidate(handle)

	return handle, nil
}

// NullMut returns the null sentinel handle, a safe placeholder that can later be
// replaced by a live handle.
func NullMut[T memutils.Scalar]() *MutPtr[T] {
	return &MutPtr[T]{}
}

func (p *MutPtr[T]) IsNull() bool {
	return p.ptr == nil
}

// CheckAlignment reports whether the handle is non-null and its address is a multiple
// of the element type's alignment.
func (p *MutPtr[T]) CheckAlignment() bool {
	return p.ptr != nil && memutils.IsAligned(uintptr(p.ptr), alignOf[T]())
}

// CheckBounds reports whether the current offset lies within the block's valid index
// range.
func (p *MutPtr[T]) CheckBounds() bool {
	return p.offset >= 0 && p.offset < p.length
}

func (p *MutPtr[T]) Offset() int {
	return p.offset
}

func (p *MutPtr[T]) Length() int {
	return p.length
}

// Address returns the numeric value of the current element's address.
func (p *MutPtr[T]) Address() uintptr {
	return uintptr(p.ptr)
}

// SizeOf returns the size of the element type in bytes.
func (p *MutPtr[T]) SizeOf() uintptr {
	return sizeOf[T]()
}

// IsOwner reports whether this handle will deallocate its block when freed.
func (p *MutPtr[T]) IsOwner() bool {
	return p.owned
}

// ChangeOffset moves the handle delta elements within its block. The offset and the
// address move together as a single update: on failure the handle is completely
// unchanged.
func (p *MutPtr[T]) ChangeOffset(delta int) error {
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
func (p *MutPtr[T]) ChangeLength(newLength int) error {
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
func (p *MutPtr[T]) Access() (T, error) {
	var empty T

	err := p.checkLive()
	if err != nil {
		return empty, err
	}

	return *(*T)(p.ptr), nil
}

// Ref returns a pointer to the current element. It fails rather than produce a
// reference through a null or misaligned address.
func (p *MutPtr[T]) Ref() (*T, error) {
	err := p.checkLive()
	if err != nil {
		return nil, err
	}

	return (*T)(p.ptr), nil
}

// MutRef returns a pointer to the current element through which the caller may write.
// It fails rather than produce a reference through a null or misaligned address.
func (p *MutPtr[T]) MutRef() (*T, error) {
	err := p.checkLive()
	if err != nil {
		return nil, err
	}

	return (*T)(p.ptr), nil
}

// Write overwrites the current element with value, discarding whatever was in the slot
// before. It fails as a no-op when the handle is null or misaligned.
func (p *MutPtr[T]) Write(value T) error {
	err := p.checkLive()
	if err != nil {
		return err
	}

	*(*T)(p.ptr) = value
	memutils.DebugValidate(p)

	return nil
}

// Release transfers ownership of the block out of the handle. It returns the current
// element's address and leaves the handle null without deallocating anything: the
// caller becomes solely responsible for the memory's ultimate deallocation.
func (p *MutPtr[T]) Release() (uintptr, error) {
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
func (p *MutPtr[T]) ReleaseValue() (T, error) {
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
func (p *MutPtr[T]) SetNull() {
	p.reset()
}

// AsConst produces a read-only handle aliasing the same address, length, and offset.
// The alias borrows the block: it can never deallocate, so only this handle's
// lifecycle controls the memory.
func (p *MutPtr[T]) AsConst() *ConstPtr[T] {
	return &ConstPtr[T]{
		ptr:    p.ptr,
		length: p.length,
		offset: p.offset,
	}
}

// Free is the handle's deterministic cleanup. An owning, non-null handle deallocates
// its block through the bridge exactly once; a borrowing handle just becomes null.
// Free is idempotent and safe to defer.
func (p *MutPtr[T]) Free() {
	if p.ptr != nil && p.owned && p.bridge != nil {
		base := unsafe.Add(p.ptr, -p.offset*int(sizeOf[T]()))
		p.bridge.Deallocate(base)
	}
	p.reset()
}

// Validate checks the handle's internal invariants. The null sentinel is valid.
func (p *MutPtr[T]) Validate() error {
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
func (p *MutPtr[T]) PrintJSON(json jwriter.ObjectState) {
	json.Name("Address").String(fmt.Sprintf("0x%x", uintptr(p.ptr)))
	json.Name("Length").Int(p.length)
	json.Name("Offset").Int(p.offset)
	json.Name("Owned").Bool(p.owned)
}

func (p *MutPtr[T]) checkLive() error {
	if p.ptr == nil {
		return errors.Wrapf(memutils.NilPointerError, "the handle is null")
	}
	if !memutils.IsAligned(uintptr(p.ptr), alignOf[T]()) {
		return errors.Wrapf(memutils.MisalignedPointerError, "address 0x%x is not a multiple of %d", uintptr(p.ptr), alignOf[T]())
	}

	return nil
}

func (p *MutPtr[T]) reset() {
	p.ptr = nil
	p.length = 0
	p.offset = 0
	p.owned = false
	p.bridge = nil
}
