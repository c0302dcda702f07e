package bridge

import (
	"errors"
	"fmt"

	"github.com/ebitengine/purego"
)

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNoResolver     = errors.New("no symbol resolver configured")
)

// The dispatch registration strategies all write the Dispatch slot, so
// whichever ran last is active.

// RegisterDispatch installs fn as the dispatch handler. A nil fn clears it.
func (r *Registry) RegisterDispatch(fn DispatchFunc) {
	r.set(OpDispatch, fn)
}

// RegisterDispatchAddress installs the native function at addr, a C function
// int32_t(uintptr_t), as the dispatch handler. The address is not validated
// beyond two cases treated like a null handler, which clear the slot: zero,
// and the trampoline itself.
func (r *Registry) RegisterDispatchAddress(addr uintptr) {
	fn := nativeDispatch(addr)
	if fn == nil {
		logf("Dispatch: address %#x does not name a dispatch function", addr)
	}
	r.set(OpDispatch, fn)
}

// RegisterDispatchHandle installs the Go dispatch function held by h, a
// Handle obtained with NewHandle. If h does not name a live DispatchFunc (or
// func(uintptr) int32) the slot is cleared.
func (r *Registry) RegisterDispatchHandle(h Handle) {
	fn := dispatchFromValue(LookupHandle(h))
	if fn == nil {
		logf("Dispatch: handle %#x does not name a dispatch function", uintptr(h))
	}
	r.set(OpDispatch, fn)
}

// nativeDispatch wraps the C function at addr. Calling the trampoline from
// its own slot would never return, so that address is refused.
func nativeDispatch(addr uintptr) DispatchFunc {
	if addr == 0 || addr == TrampolineAddress() {
		return nil
	}
	return func(args uintptr) Status {
		r1, _, _ := purego.SyscallN(addr, args)
		return Status(int32(r1))
	}
}

func dispatchFromValue(v any, ok bool) DispatchFunc {
	if !ok {
		return nil
	}
	switch fn := v.(type) {
	case DispatchFunc:
		return fn
	case func(uintptr) Status:
		return fn
	case func(uintptr) int32:
		if fn == nil {
			return nil
		}
		return func(addr uintptr) Status { return Status(fn(addr)) }
	}
	return nil
}

// RegisterDispatchByName resolves name through the registry's SymbolResolver
// and installs the result. Resolution happens once, now. If it fails the
// previously registered handler stays active and the error is returned.
func (r *Registry) RegisterDispatchByName(name string) error {
	ref := r.resolver.Load()
	if ref == nil {
		logf("Dispatch: cannot resolve %q: no resolver", name)
		return fmt.Errorf("bridge: register dispatch %q: %w", name, ErrNoResolver)
	}
	fn, err := ref.r.Resolve(name)
	if err == nil && fn == nil {
		err = ErrSymbolNotFound
	}
	if err != nil {
		logf("Dispatch: cannot resolve %q, keeping previous handler: %v", name, err)
		return fmt.Errorf("bridge: register dispatch %q: %w", name, err)
	}
	r.set(OpDispatch, fn)
	return nil
}

// Dispatch forwards argsAddress to the registered dispatch handler and returns
// its status. Without a handler it returns StatusNotRegistered and calls
// nothing.
func (r *Registry) Dispatch(argsAddress uintptr) Status {
	fn := r.dispatch()
	if fn == nil {
		logf("Dispatch: no handler registered")
		return StatusNotRegistered
	}
	return fn(argsAddress)
}

// DispatchFunction returns the registry's trampoline as a DispatchFunc. The
// value stays valid for the life of r regardless of later registrations.
func (r *Registry) DispatchFunction() DispatchFunc {
	return r.Dispatch
}

// Process-wide trampoline.

func RegisterDispatchCallback(fn DispatchFunc)     { Default().RegisterDispatch(fn) }
func RegisterDispatchCallbackAddress(addr uintptr) { Default().RegisterDispatchAddress(addr) }
func RegisterDispatchCallbackHandle(h Handle)      { Default().RegisterDispatchHandle(h) }
func RegisterDispatchCallbackByName(name string) error {
	return Default().RegisterDispatchByName(name)
}

// Dispatch is the process-wide trampoline. Native code reaches it at
// TrampolineAddress.
func Dispatch(argsAddress uintptr) Status {
	return Default().Dispatch(argsAddress)
}

// TrampolineAddress returns the native entry point of Dispatch. It is fixed
// for the life of the process.
func TrampolineAddress() uintptr {
	return FunctionAddress(OpDispatch)
}
