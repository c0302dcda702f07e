package bridge

import (
	"testing"
	"unsafe"
)

// poison stands in for engine memory. Adapters pass it through untouched, so
// tests compare it by value and never read through it.
var poison = unsafe.Pointer(new([64]byte))

// callAll invokes every store adapter of funcs with poison arguments and
// returns the statuses by op.
func callAll(funcs StoreFuncs) map[Op]Status {
	ctx := poison
	return map[Op]Status{
		OpLoadSession:            funcs.Session.LoadSession(ctx, (*MutPointerSessionRecord)(poison), ConstPointerProtocolAddress{Raw: poison}),
		OpStoreSession:           funcs.Session.StoreSession(ctx, ConstPointerProtocolAddress{Raw: poison}, ConstPointerSessionRecord{Raw: poison}),
		OpGetIdentityKeyPair:     funcs.Identity.GetIdentityKeyPair(ctx, (*MutPointerPrivateKey)(poison)),
		OpGetLocalRegistrationID: funcs.Identity.GetLocalRegistrationID(ctx, (*uint32)(poison)),
		OpSaveIdentityKey:        funcs.Identity.SaveIdentityKey(ctx, ConstPointerProtocolAddress{Raw: poison}, ConstPointerPublicKey{Raw: poison}),
		OpGetIdentityKey:         funcs.Identity.GetIdentityKey(ctx, (*MutPointerPublicKey)(poison), ConstPointerProtocolAddress{Raw: poison}),
		OpIsTrustedIdentity:      funcs.Identity.IsTrustedIdentity(ctx, ConstPointerProtocolAddress{Raw: poison}, ConstPointerPublicKey{Raw: poison}, 1),
		OpLoadPreKey:             funcs.PreKey.LoadPreKey(ctx, (*MutPointerPreKeyRecord)(poison), 1),
		OpStorePreKey:            funcs.PreKey.StorePreKey(ctx, 1, MutPointerPreKeyRecord{Raw: poison}),
		OpRemovePreKey:           funcs.PreKey.RemovePreKey(ctx, 1),
		OpLoadSignedPreKey:       funcs.SignedPreKey.LoadSignedPreKey(ctx, (*MutPointerSignedPreKeyRecord)(poison), 1),
		OpStoreSignedPreKey:      funcs.SignedPreKey.StoreSignedPreKey(ctx, 1, MutPointerSignedPreKeyRecord{Raw: poison}),
		OpLoadKyberPreKey:        funcs.KyberPreKey.LoadKyberPreKey(ctx, (*MutPointerKyberPreKeyRecord)(poison), 1),
		OpStoreKyberPreKey:       funcs.KyberPreKey.StoreKyberPreKey(ctx, 1, MutPointerKyberPreKeyRecord{Raw: poison}),
		OpMarkKyberPreKeyUsed:    funcs.KyberPreKey.MarkKyberPreKeyUsed(ctx, 1, 2, MutPointerPublicKey{Raw: poison}),
		OpDispatch:               funcs.Dispatch(uintptr(poison)),
	}
}

func TestAdaptersNotRegistered(t *testing.T) {
	r := NewRegistry()
	got := callAll(r.StoreFuncs())
	if len(got) != len(Ops()) {
		t.Fatalf("called %d ops, want %d", len(got), len(Ops()))
	}
	for op, status := range got {
		if status != StatusNotRegistered {
			t.Errorf("%v: status %d, want %d", op, status, StatusNotRegistered)
		}
	}
}

func TestAdaptersForwardStatusVerbatim(t *testing.T) {
	r := NewRegistry()
	want := map[Op]Status{}
	next := Status(40)
	status := func() Status {
		next++
		return next
	}
	for _, op := range Ops() {
		s := status()
		want[op] = s
		var h Handler
		switch ShapeOf(op) {
		case ShapePointer:
			h = PointerHandler(func(ctx, out unsafe.Pointer) Status { return s })
		case ShapePair:
			h = PairHandler(func(ctx, a, b unsafe.Pointer) Status { return s })
		case ShapeScalar:
			h = ScalarHandler(func(ctx, a, b unsafe.Pointer, scalar uint32) Status { return s })
		case ShapeDispatch:
			h = DispatchFunc(func(uintptr) Status { return s })
		}
		if err := r.Register(op, h); err != nil {
			t.Fatalf("Register(%v): %v", op, err)
		}
	}
	for op, got := range callAll(r.StoreFuncs()) {
		if got != want[op] {
			t.Errorf("%v: status %d, want %d", op, got, want[op])
		}
	}
}

func TestLoadSessionPassesContextAndAddress(t *testing.T) {
	r := NewRegistry()
	var (
		gotCtx  unsafe.Pointer
		gotAddr unsafe.Pointer
		gotRec  unsafe.Pointer
	)
	r.RegisterLoadSession(func(ctx, recordp, address unsafe.Pointer) Status {
		gotCtx = ctx
		gotRec = recordp
		gotAddr = (*ConstPointerProtocolAddress)(address).Raw
		return StatusOK
	})

	ctx := unsafe.Pointer(new(int))
	addr := unsafe.Pointer(new(int))
	var rec MutPointerSessionRecord
	if s := r.LoadSession(ctx, &rec, ConstPointerProtocolAddress{Raw: addr}); s != StatusOK {
		t.Fatalf("LoadSession: status %d", s)
	}
	if gotCtx != ctx {
		t.Errorf("ctx = %p, want %p", gotCtx, ctx)
	}
	if gotAddr != addr {
		t.Errorf("address = %p, want %p", gotAddr, addr)
	}
	if gotRec != unsafe.Pointer(&rec) {
		t.Errorf("recordp = %p, want %p", gotRec, &rec)
	}
}

func TestLoadSessionOutParam(t *testing.T) {
	r := NewRegistry()
	record := new(int)
	r.RegisterLoadSession(func(ctx, recordp, address unsafe.Pointer) Status {
		(*MutPointerSessionRecord)(recordp).Raw = unsafe.Pointer(record)
		return StatusOK
	})
	var rec MutPointerSessionRecord
	r.LoadSession(nil, &rec, ConstPointerProtocolAddress{})
	if rec.Raw != unsafe.Pointer(record) {
		t.Fatalf("record not written through out pointer")
	}
}

func TestStoreSessionNotRegisteredLeavesArgs(t *testing.T) {
	r := NewRegistry()
	addr := ConstPointerProtocolAddress{Raw: unsafe.Pointer(new(int))}
	rec := ConstPointerSessionRecord{Raw: unsafe.Pointer(new(int))}
	before := [2]unsafe.Pointer{addr.Raw, rec.Raw}

	if s := r.StoreSession(nil, addr, rec); s != StatusNotRegistered {
		t.Fatalf("StoreSession: status %d, want %d", s, StatusNotRegistered)
	}
	if addr.Raw != before[0] || rec.Raw != before[1] {
		t.Fatal("arguments mutated")
	}
}

func TestIsTrustedIdentityDirection(t *testing.T) {
	r := NewRegistry()
	var seen []uint32
	var gotKey unsafe.Pointer
	r.RegisterIsTrustedIdentity(func(ctx, address, publicKey unsafe.Pointer, direction uint32) Status {
		seen = append(seen, direction)
		gotKey = (*ConstPointerPublicKey)(publicKey).Raw
		if direction == 2 {
			return 1
		}
		return 7
	})

	key := unsafe.Pointer(new(int))
	if s := r.IsTrustedIdentity(nil, ConstPointerProtocolAddress{}, ConstPointerPublicKey{Raw: key}, 2); s != 1 {
		t.Errorf("direction 2: status %d, want 1", s)
	}
	if s := r.IsTrustedIdentity(nil, ConstPointerProtocolAddress{}, ConstPointerPublicKey{Raw: key}, 0); s != 7 {
		t.Errorf("direction 0: status %d, want 7", s)
	}
	if len(seen) != 2 || seen[0] != 2 || seen[1] != 0 {
		t.Errorf("directions seen = %v, want [2 0]", seen)
	}
	if gotKey != key {
		t.Errorf("public key = %p, want %p", gotKey, key)
	}
}

func TestMarkKyberPreKeyUsedNoDedup(t *testing.T) {
	r := NewRegistry()
	var ids []uint32
	var ecIDs []uint32
	r.RegisterMarkKyberPreKeyUsed(func(ctx, baseKey, ecPreKeyID unsafe.Pointer, id uint32) Status {
		ids = append(ids, id)
		ecIDs = append(ecIDs, *(*uint32)(ecPreKeyID))
		return StatusOK
	})
	for i := 0; i < 2; i++ {
		if s := r.MarkKyberPreKeyUsed(nil, 77, 5, MutPointerPublicKey{}); s != StatusOK {
			t.Fatalf("status %d", s)
		}
	}
	if len(ids) != 2 || ids[0] != 77 || ids[1] != 77 {
		t.Fatalf("ids = %v, want [77 77]", ids)
	}
	if ecIDs[0] != 5 || ecIDs[1] != 5 {
		t.Fatalf("ec pre-key ids = %v, want [5 5]", ecIDs)
	}
}

func TestPreKeyAdaptersPassID(t *testing.T) {
	r := NewRegistry()
	type call struct {
		a, b unsafe.Pointer
		id   uint32
	}
	var calls []call
	h := func(ctx, a, b unsafe.Pointer, id uint32) Status {
		calls = append(calls, call{a, b, id})
		return StatusOK
	}
	r.RegisterLoadPreKey(h)
	r.RegisterStorePreKey(h)
	r.RegisterRemovePreKey(h)

	var out MutPointerPreKeyRecord
	rec := unsafe.Pointer(new(int))
	r.LoadPreKey(nil, &out, 11)
	r.StorePreKey(nil, 12, MutPointerPreKeyRecord{Raw: rec})
	r.RemovePreKey(nil, 13)

	if len(calls) != 3 {
		t.Fatalf("got %d calls", len(calls))
	}
	if calls[0].a != unsafe.Pointer(&out) || calls[0].id != 11 {
		t.Errorf("load: %+v", calls[0])
	}
	if (*MutPointerPreKeyRecord)(calls[1].a).Raw != rec || calls[1].id != 12 {
		t.Errorf("store: %+v", calls[1])
	}
	if calls[2].a != nil || calls[2].b != nil || calls[2].id != 13 {
		t.Errorf("remove: %+v", calls[2])
	}
}

func TestGetLocalRegistrationIDWritesThrough(t *testing.T) {
	r := NewRegistry()
	r.RegisterGetLocalRegistrationID(func(ctx, out unsafe.Pointer) Status {
		*(*uint32)(out) = 4242
		return StatusOK
	})
	var id uint32
	if s := r.GetLocalRegistrationID(nil, &id); s != StatusOK {
		t.Fatalf("status %d", s)
	}
	if id != 4242 {
		t.Fatalf("id = %d, want 4242", id)
	}
}
