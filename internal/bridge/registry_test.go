package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"
)

func TestOpStrings(t *testing.T) {
	if got := OpIsTrustedIdentity.String(); got != "IsTrustedIdentity" {
		t.Errorf("String() = %q", got)
	}
	if got := Op(99).String(); got != "Op(99)" {
		t.Errorf("String() = %q", got)
	}
	if OpDispatch.IsStore() || !OpLoadSession.IsStore() || Op(0).Valid() {
		t.Error("op classification wrong")
	}
	ops := Ops()
	if len(ops) != 16 || ops[0] != OpLoadSession || ops[15] != OpDispatch {
		t.Errorf("Ops() = %v", ops)
	}
	for _, op := range ops {
		if ShapeOf(op) == ShapeNone {
			t.Errorf("%v has no shape", op)
		}
	}
}

func TestRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry()
	var h1Calls, h2Calls int
	r.RegisterStoreSession(func(ctx, a, b unsafe.Pointer) Status {
		h1Calls++
		return 11
	})
	r.RegisterStoreSession(func(ctx, a, b unsafe.Pointer) Status {
		h2Calls++
		return 22
	})

	for i := 0; i < 3; i++ {
		if s := r.StoreSession(nil, ConstPointerProtocolAddress{}, ConstPointerSessionRecord{}); s != 22 {
			t.Fatalf("status %d, want 22", s)
		}
	}
	if h1Calls != 0 || h2Calls != 3 {
		t.Fatalf("h1 calls = %d, h2 calls = %d", h1Calls, h2Calls)
	}
}

func TestRegisterNilClears(t *testing.T) {
	r := NewRegistry()
	r.RegisterRemovePreKey(func(ctx, a, b unsafe.Pointer, id uint32) Status { return StatusOK })
	if !r.Registered(OpRemovePreKey) {
		t.Fatal("expected registered")
	}
	r.RegisterRemovePreKey(nil)
	if r.Registered(OpRemovePreKey) {
		t.Fatal("nil registration should clear the slot")
	}
	if s := r.RemovePreKey(nil, 1); s != StatusNotRegistered {
		t.Fatalf("status %d, want %d", s, StatusNotRegistered)
	}
}

func TestRegisterShapeMismatch(t *testing.T) {
	r := NewRegistry()
	keep := PairHandler(func(ctx, a, b unsafe.Pointer) Status { return 5 })
	if err := r.Register(OpLoadSession, keep); err != nil {
		t.Fatal(err)
	}

	err := r.Register(OpLoadSession, ScalarHandler(func(ctx, a, b unsafe.Pointer, s uint32) Status { return 0 }))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
	if s := r.LoadSession(nil, nil, ConstPointerProtocolAddress{}); s != 5 {
		t.Fatalf("previous handler lost: status %d", s)
	}

	if err := r.Register(Op(0), keep); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("err = %v, want ErrUnknownOp", err)
	}
	if err := r.Register(OpLoadSession, nil); err != nil {
		t.Fatalf("nil handler: %v", err)
	}
	if r.Registered(OpLoadSession) {
		t.Fatal("nil handler should clear")
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup(OpGetIdentityKey); ok {
		t.Fatal("empty registry should have no handler")
	}
	if _, ok := r.Lookup(Op(200)); ok {
		t.Fatal("unknown op should have no handler")
	}
	r.RegisterGetIdentityKey(func(ctx, a, b unsafe.Pointer) Status { return 0 })
	h, ok := r.Lookup(OpGetIdentityKey)
	if !ok {
		t.Fatal("expected handler")
	}
	if _, ok := h.(PairHandler); !ok {
		t.Fatalf("handler type %T", h)
	}
}

// Readers racing a writer must see one of the registered handlers, never a
// missing or partial one.
func TestRegistryConcurrentSwap(t *testing.T) {
	r := NewRegistry()
	r.RegisterLoadKyberPreKey(func(ctx, a, b unsafe.Pointer, id uint32) Status { return 100 })

	var stop atomic.Bool
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; !stop.Load(); i++ {
			s := Status(100 + i%2)
			r.RegisterLoadKyberPreKey(func(ctx, a, b unsafe.Pointer, id uint32) Status { return s })
		}
	}()

	var bad atomic.Int32
	var readers sync.WaitGroup
	for i := 0; i < 8; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for j := 0; j < 2000; j++ {
				s := r.LoadKyberPreKey(nil, nil, 1)
				if s != 100 && s != 101 {
					bad.Add(1)
				}
			}
		}()
	}
	readers.Wait()
	stop.Store(true)
	<-writerDone

	if n := bad.Load(); n != 0 {
		t.Fatalf("%d reads saw an unexpected status", n)
	}
}

func TestDefaultRegistryExports(t *testing.T) {
	skipWithoutCallbacks(t)
	resetDefault(t)
	if Default() != Default() {
		t.Fatal("Default should return the same registry")
	}
	for op, s := range callAll(Exports()) {
		if s != StatusNotRegistered {
			t.Fatalf("%v before registration: status %d", op, s)
		}
	}

	var got uint32
	RegisterRemovePreKeyCallback(func(ctx, a, b unsafe.Pointer, id uint32) Status {
		got = id
		return StatusOK
	})
	funcs := Exports()
	if s := funcs.PreKey.RemovePreKey(nil, 9); s != StatusOK || got != 9 {
		t.Fatalf("RemovePreKey via exports: status %d, id %d", s, got)
	}

	for _, op := range Ops() {
		if FunctionAddress(op) == 0 {
			t.Errorf("%v: zero function address", op)
		}
	}
	if FunctionAddress(Op(0)) != 0 {
		t.Error("unknown op should have no address")
	}
	if FunctionAddress(OpDispatch) != TrampolineAddress() {
		t.Error("dispatch address should be the trampoline")
	}
	if FunctionAddress(OpLoadSession) != FunctionAddress(OpLoadSession) {
		t.Error("function address not stable")
	}
}
