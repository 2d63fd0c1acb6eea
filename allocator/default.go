package allocator

import "sync"

var (
	defaultMutex  sync.Mutex
	defaultBridge *Bridge
)

// Install makes bridge the process-wide default used by allocating constructors that do
// not name a bridge of their own. The substitution happens once, at startup, and is not
// revocable: installing a second bridge panics. Consumers that never call Install get a
// lazily-created bridge over a HeapBackend the first time Default is called.
func Install(bridge *Bridge) {
	if bridge == nil {
		panic("attempted to install a nil allocation bridge as the process default")
	}

	defaultMutex.Lock()
	defer defaultMutex.Unlock()

	if defaultBridge != nil {
		panic("a process-wide allocation bridge has already been installed")
	}
	defaultBridge = bridge
}

// Default returns the process-wide allocation bridge, installing a bridge over a
// HeapBackend if none has been installed yet.
func Default() *Bridge {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()

	if defaultBridge == nil {
		bridge, err := New(nil, NewHeapBackend(), CreateOptions{})
		if err != nil {
			panic(err)
		}
		defaultBridge = bridge
	}

	return defaultBridge
}
