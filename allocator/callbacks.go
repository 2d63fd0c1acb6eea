package allocator

import "unsafe"

type AllocateMemoryCallback func(
	bridge *Bridge,
	ptr unsafe.Pointer,
	size int,
	userData interface{},
)

type FreeMemoryCallback func(
	bridge *Bridge,
	ptr unsafe.Pointer,
	size int,
	userData interface{},
)

type MemoryCallbackOptions struct {
	Allocate AllocateMemoryCallback
	Free     FreeMemoryCallback
	UserData interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Bridge    *Bridge
}

func (c *memoryCallbacks) Allocate(ptr unsafe.Pointer, size int) {
	if c.Callbacks != nil && c.Callbacks.Allocate != nil {
		c.Callbacks.Allocate(c.Bridge, ptr, size, c.Callbacks.UserData)
	}
}

func (c *memoryCallbacks) Free(ptr unsafe.Pointer, size int) {
	if c.Callbacks != nil && c.Callbacks.Free != nil {
		c.Callbacks.Free(c.Bridge, ptr, size, c.Callbacks.UserData)
	}
}
