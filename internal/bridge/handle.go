package bridge

import (
	"sync"
	"sync/atomic"
)

// Handle is an address-sized value naming a Go value, for hosts that can only
// pass integers across the boundary. It follows the runtime/cgo.Handle
// contract: zero is never valid, and a handle stays valid until Delete.
type Handle uintptr

var (
	handles   sync.Map // Handle -> any
	handleIdx atomic.Uintptr
)

// NewHandle returns a handle for v. The value stays reachable until the handle
// is deleted.
func NewHandle(v any) Handle {
	h := Handle(handleIdx.Add(1))
	handles.Store(h, v)
	return h
}

// Value returns the value named by h. It panics if h is not a live handle.
func (h Handle) Value() any {
	v, ok := handles.Load(h)
	if !ok {
		panic("bridge: misuse of an invalid Handle")
	}
	return v
}

// LookupHandle is Value without the panic.
func LookupHandle(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}
	return handles.Load(h)
}

// Delete invalidates h. Deleting an invalid handle panics.
func (h Handle) Delete() {
	if _, ok := handles.LoadAndDelete(h); !ok {
		panic("bridge: misuse of an invalid Handle")
	}
}
