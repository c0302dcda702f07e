package hoststore

import (
	"unsafe"

	"github.com/gwillem/signal-bridge/internal/bridge"
	"github.com/gwillem/signal-bridge/internal/engine"
)

// The handlers below receive the bridge's simplified arguments. Wrapper
// structs arrive by address; their Raw fields point at engine objects.

func address(p unsafe.Pointer) *engine.Address {
	return (*engine.Address)((*bridge.ConstPointerProtocolAddress)(p).Raw)
}

func publicKey(p unsafe.Pointer) *engine.PublicKey {
	return (*engine.PublicKey)((*bridge.ConstPointerPublicKey)(p).Raw)
}

// fail logs err against op and returns the handler failure status.
func (s *Store) fail(op bridge.Op, err error) bridge.Status {
	s.logf("%v: %v", op, err)
	return bridge.StatusHandlerFailed
}

// Register installs a handler for every store operation on r, replacing any
// handlers registered before.
func (s *Store) Register(r *bridge.Registry) {
	r.RegisterLoadSession(s.loadSession)
	r.RegisterStoreSession(s.storeSession)
	r.RegisterGetIdentityKeyPair(s.getIdentityKeyPair)
	r.RegisterGetLocalRegistrationID(s.getLocalRegistrationID)
	r.RegisterSaveIdentityKey(s.saveIdentityKey)
	r.RegisterGetIdentityKey(s.getIdentityKey)
	r.RegisterIsTrustedIdentity(s.isTrustedIdentity)
	r.RegisterLoadPreKey(s.loadPreKey)
	r.RegisterStorePreKey(s.storePreKey)
	r.RegisterRemovePreKey(s.removePreKey)
	r.RegisterLoadSignedPreKey(s.loadSignedPreKey)
	r.RegisterStoreSignedPreKey(s.storeSignedPreKey)
	r.RegisterLoadKyberPreKey(s.loadKyberPreKey)
	r.RegisterStoreKyberPreKey(s.storeKyberPreKey)
	r.RegisterMarkKyberPreKeyUsed(s.markKyberPreKeyUsed)
}

// --- Session store ---

func (s *Store) loadSession(ctx, recordp, addr unsafe.Pointer) bridge.Status {
	rec, err := s.LoadSession(address(addr))
	if err != nil {
		return s.fail(bridge.OpLoadSession, err)
	}
	if rec != nil {
		(*bridge.MutPointerSessionRecord)(recordp).Raw = unsafe.Pointer(rec)
	}
	return bridge.StatusOK
}

func (s *Store) storeSession(ctx, addr, record unsafe.Pointer) bridge.Status {
	rec := (*engine.SessionRecord)((*bridge.ConstPointerSessionRecord)(record).Raw)
	if err := s.StoreSession(address(addr), rec); err != nil {
		return s.fail(bridge.OpStoreSession, err)
	}
	return bridge.StatusOK
}

// --- Identity key store ---

func (s *Store) getIdentityKeyPair(ctx, keyp unsafe.Pointer) bridge.Status {
	key, err := s.GetIdentityKeyPair()
	if err != nil {
		return s.fail(bridge.OpGetIdentityKeyPair, err)
	}
	(*bridge.MutPointerPrivateKey)(keyp).Raw = unsafe.Pointer(key)
	return bridge.StatusOK
}

func (s *Store) getLocalRegistrationID(ctx, idp unsafe.Pointer) bridge.Status {
	id, err := s.GetLocalRegistrationID()
	if err != nil {
		return s.fail(bridge.OpGetLocalRegistrationID, err)
	}
	*(*uint32)(idp) = id
	return bridge.StatusOK
}

func (s *Store) saveIdentityKey(ctx, addr, key unsafe.Pointer) bridge.Status {
	a := address(addr)
	replaced, err := s.SaveIdentityKey(a, publicKey(key))
	if err != nil {
		return s.fail(bridge.OpSaveIdentityKey, err)
	}
	if replaced {
		s.logf("identity key for %s changed", a)
	}
	return bridge.StatusOK
}

func (s *Store) getIdentityKey(ctx, keyp, addr unsafe.Pointer) bridge.Status {
	key, err := s.GetIdentityKey(address(addr))
	if err != nil {
		return s.fail(bridge.OpGetIdentityKey, err)
	}
	if key != nil {
		(*bridge.MutPointerPublicKey)(keyp).Raw = unsafe.Pointer(key)
	}
	return bridge.StatusOK
}

func (s *Store) isTrustedIdentity(ctx, addr, key unsafe.Pointer, direction uint32) bridge.Status {
	trusted, err := s.IsTrustedIdentity(address(addr), publicKey(key), engine.Direction(direction))
	if err != nil {
		return s.fail(bridge.OpIsTrustedIdentity, err)
	}
	if !trusted {
		return engine.StatusUntrustedIdentity
	}
	return bridge.StatusOK
}

// --- Pre-key stores ---

func (s *Store) loadPreKey(ctx, recordp, _ unsafe.Pointer, id uint32) bridge.Status {
	rec, err := s.LoadPreKey(id)
	if err != nil {
		return s.fail(bridge.OpLoadPreKey, err)
	}
	(*bridge.MutPointerPreKeyRecord)(recordp).Raw = unsafe.Pointer(rec)
	return bridge.StatusOK
}

func (s *Store) storePreKey(ctx, record, _ unsafe.Pointer, id uint32) bridge.Status {
	rec := (*engine.PreKeyRecord)((*bridge.MutPointerPreKeyRecord)(record).Raw)
	if err := s.StorePreKey(id, rec); err != nil {
		return s.fail(bridge.OpStorePreKey, err)
	}
	return bridge.StatusOK
}

func (s *Store) removePreKey(ctx, _, _ unsafe.Pointer, id uint32) bridge.Status {
	if err := s.RemovePreKey(id); err != nil {
		return s.fail(bridge.OpRemovePreKey, err)
	}
	return bridge.StatusOK
}

func (s *Store) loadSignedPreKey(ctx, recordp, _ unsafe.Pointer, id uint32) bridge.Status {
	rec, err := s.LoadSignedPreKey(id)
	if err != nil {
		return s.fail(bridge.OpLoadSignedPreKey, err)
	}
	(*bridge.MutPointerSignedPreKeyRecord)(recordp).Raw = unsafe.Pointer(rec)
	return bridge.StatusOK
}

func (s *Store) storeSignedPreKey(ctx, record, _ unsafe.Pointer, id uint32) bridge.Status {
	rec := (*engine.SignedPreKeyRecord)((*bridge.MutPointerSignedPreKeyRecord)(record).Raw)
	if err := s.StoreSignedPreKey(id, rec); err != nil {
		return s.fail(bridge.OpStoreSignedPreKey, err)
	}
	return bridge.StatusOK
}

func (s *Store) loadKyberPreKey(ctx, recordp, _ unsafe.Pointer, id uint32) bridge.Status {
	rec, err := s.LoadKyberPreKey(id)
	if err != nil {
		return s.fail(bridge.OpLoadKyberPreKey, err)
	}
	(*bridge.MutPointerKyberPreKeyRecord)(recordp).Raw = unsafe.Pointer(rec)
	return bridge.StatusOK
}

func (s *Store) storeKyberPreKey(ctx, record, _ unsafe.Pointer, id uint32) bridge.Status {
	rec := (*engine.KyberPreKeyRecord)((*bridge.MutPointerKyberPreKeyRecord)(record).Raw)
	if err := s.StoreKyberPreKey(id, rec); err != nil {
		return s.fail(bridge.OpStoreKyberPreKey, err)
	}
	return bridge.StatusOK
}

// markKyberPreKeyUsed gets the base key wrapper as a and the EC pre-key id as b.
func (s *Store) markKyberPreKeyUsed(ctx, _, ecPreKeyID unsafe.Pointer, id uint32) bridge.Status {
	if err := s.MarkKyberPreKeyUsed(id, *(*uint32)(ecPreKeyID)); err != nil {
		return s.fail(bridge.OpMarkKyberPreKeyUsed, err)
	}
	return bridge.StatusOK
}
