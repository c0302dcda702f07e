package bridge

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrUnknownOp     = errors.New("unknown operation")
	ErrShapeMismatch = errors.New("handler shape does not match operation")
)

// slot is the immutable value swapped into a registry entry.
type slot struct {
	h Handler
}

// Registry maps each operation to at most one active handler. Every entry is
// an atomically swapped slot: registration replaces the whole slot and lookups
// read it without locking, so a reader sees either the old or the new handler.
// Registration and in-flight calls are not otherwise serialized.
type Registry struct {
	slots    [numOps]atomic.Pointer[slot]
	resolver atomic.Pointer[resolverRef]
}

type resolverRef struct {
	r SymbolResolver
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSymbolResolver sets the resolver used by RegisterDispatchByName.
func WithSymbolResolver(r SymbolResolver) RegistryOption {
	return func(reg *Registry) { reg.SetSymbolResolver(r) }
}

// NewRegistry returns an empty registry. Hosts normally use Default; separate
// registries are for tests and for hosts that bind adapters explicitly with
// (*Registry).StoreFuncs.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return NewRegistry() })

// Default returns the process-wide registry used by the package-level adapters
// and by Exports. It is created on first use and lives for the process.
func Default() *Registry {
	return defaultRegistry()
}

// SetSymbolResolver replaces the resolver used by RegisterDispatchByName.
// A nil resolver disables by-name registration.
func (r *Registry) SetSymbolResolver(sr SymbolResolver) {
	if sr == nil {
		r.resolver.Store(nil)
		return
	}
	r.resolver.Store(&resolverRef{r: sr})
}

// Register installs h as the only handler for op, replacing any previous one.
// A nil h clears the slot. It fails only if op is unknown or h has the wrong
// shape for op; the slot is unchanged in that case.
func (r *Registry) Register(op Op, h Handler) error {
	if !op.Valid() {
		return fmt.Errorf("bridge: register %v: %w", op, ErrUnknownOp)
	}
	if isNil(h) {
		r.set(op, nil)
		return nil
	}
	if got, want := h.shape(), ShapeOf(op); got != want {
		return fmt.Errorf("bridge: register %v: handler %v, want %v: %w", op, got, want, ErrShapeMismatch)
	}
	r.set(op, h)
	return nil
}

func (r *Registry) set(op Op, h Handler) {
	var next *slot
	if !isNil(h) {
		next = &slot{h: h}
	}
	if prev := r.slots[op].Swap(next); prev != nil {
		logf("%v: replaced registered handler", op)
	}
	if next == nil {
		logf("%v: handler cleared", op)
	}
}

// Lookup returns the active handler for op.
func (r *Registry) Lookup(op Op) (Handler, bool) {
	if !op.Valid() {
		return nil, false
	}
	s := r.slots[op].Load()
	if s == nil {
		return nil, false
	}
	return s.h, true
}

// Registered reports whether op has an active handler.
func (r *Registry) Registered(op Op) bool {
	_, ok := r.Lookup(op)
	return ok
}

func (r *Registry) pointer(op Op) PointerHandler {
	if s := r.slots[op].Load(); s != nil {
		return s.h.(PointerHandler)
	}
	return nil
}

func (r *Registry) pair(op Op) PairHandler {
	if s := r.slots[op].Load(); s != nil {
		return s.h.(PairHandler)
	}
	return nil
}

func (r *Registry) scalar(op Op) ScalarHandler {
	if s := r.slots[op].Load(); s != nil {
		return s.h.(ScalarHandler)
	}
	return nil
}

func (r *Registry) dispatch() DispatchFunc {
	if s := r.slots[OpDispatch].Load(); s != nil {
		return s.h.(DispatchFunc)
	}
	return nil
}

// --- Typed registration, one per store operation ---

func (r *Registry) RegisterLoadSession(h PairHandler)  { r.set(OpLoadSession, h) }
func (r *Registry) RegisterStoreSession(h PairHandler) { r.set(OpStoreSession, h) }

func (r *Registry) RegisterGetIdentityKeyPair(h PointerHandler) { r.set(OpGetIdentityKeyPair, h) }
func (r *Registry) RegisterGetLocalRegistrationID(h PointerHandler) {
	r.set(OpGetLocalRegistrationID, h)
}
func (r *Registry) RegisterSaveIdentityKey(h PairHandler)     { r.set(OpSaveIdentityKey, h) }
func (r *Registry) RegisterGetIdentityKey(h PairHandler)      { r.set(OpGetIdentityKey, h) }
func (r *Registry) RegisterIsTrustedIdentity(h ScalarHandler) { r.set(OpIsTrustedIdentity, h) }

func (r *Registry) RegisterLoadPreKey(h ScalarHandler)   { r.set(OpLoadPreKey, h) }
func (r *Registry) RegisterStorePreKey(h ScalarHandler)  { r.set(OpStorePreKey, h) }
func (r *Registry) RegisterRemovePreKey(h ScalarHandler) { r.set(OpRemovePreKey, h) }

func (r *Registry) RegisterLoadSignedPreKey(h ScalarHandler)  { r.set(OpLoadSignedPreKey, h) }
func (r *Registry) RegisterStoreSignedPreKey(h ScalarHandler) { r.set(OpStoreSignedPreKey, h) }

func (r *Registry) RegisterLoadKyberPreKey(h ScalarHandler)     { r.set(OpLoadKyberPreKey, h) }
func (r *Registry) RegisterStoreKyberPreKey(h ScalarHandler)    { r.set(OpStoreKyberPreKey, h) }
func (r *Registry) RegisterMarkKyberPreKeyUsed(h ScalarHandler) { r.set(OpMarkKyberPreKeyUsed, h) }

// --- Process-wide registration entry points ---

func RegisterLoadSessionCallback(h PairHandler)  { Default().RegisterLoadSession(h) }
func RegisterStoreSessionCallback(h PairHandler) { Default().RegisterStoreSession(h) }

func RegisterGetIdentityKeyPairCallback(h PointerHandler) { Default().RegisterGetIdentityKeyPair(h) }
func RegisterGetLocalRegistrationIDCallback(h PointerHandler) {
	Default().RegisterGetLocalRegistrationID(h)
}
func RegisterSaveIdentityKeyCallback(h PairHandler)     { Default().RegisterSaveIdentityKey(h) }
func RegisterGetIdentityKeyCallback(h PairHandler)      { Default().RegisterGetIdentityKey(h) }
func RegisterIsTrustedIdentityCallback(h ScalarHandler) { Default().RegisterIsTrustedIdentity(h) }

func RegisterLoadPreKeyCallback(h ScalarHandler)   { Default().RegisterLoadPreKey(h) }
func RegisterStorePreKeyCallback(h ScalarHandler)  { Default().RegisterStorePreKey(h) }
func RegisterRemovePreKeyCallback(h ScalarHandler) { Default().RegisterRemovePreKey(h) }

func RegisterLoadSignedPreKeyCallback(h ScalarHandler)  { Default().RegisterLoadSignedPreKey(h) }
func RegisterStoreSignedPreKeyCallback(h ScalarHandler) { Default().RegisterStoreSignedPreKey(h) }

func RegisterLoadKyberPreKeyCallback(h ScalarHandler)  { Default().RegisterLoadKyberPreKey(h) }
func RegisterStoreKyberPreKeyCallback(h ScalarHandler) { Default().RegisterStoreKyberPreKey(h) }
func RegisterMarkKyberPreKeyUsedCallback(h ScalarHandler) {
	Default().RegisterMarkKyberPreKeyUsed(h)
}
