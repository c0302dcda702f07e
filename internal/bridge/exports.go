package bridge

import "unsafe"

// SessionStoreFuncs is the session part of the engine's store interface.
type SessionStoreFuncs struct {
	LoadSession  func(ctx unsafe.Pointer, recordp *MutPointerSessionRecord, address ConstPointerProtocolAddress) Status
	StoreSession func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, record ConstPointerSessionRecord) Status
}

// IdentityKeyStoreFuncs is the identity part of the engine's store interface.
type IdentityKeyStoreFuncs struct {
	GetIdentityKeyPair     func(ctx unsafe.Pointer, keyp *MutPointerPrivateKey) Status
	GetLocalRegistrationID func(ctx unsafe.Pointer, idp *uint32) Status
	SaveIdentityKey        func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey) Status
	GetIdentityKey         func(ctx unsafe.Pointer, keyp *MutPointerPublicKey, address ConstPointerProtocolAddress) Status
	IsTrustedIdentity      func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey, direction uint32) Status
}

type PreKeyStoreFuncs struct {
	LoadPreKey   func(ctx unsafe.Pointer, recordp *MutPointerPreKeyRecord, id uint32) Status
	StorePreKey  func(ctx unsafe.Pointer, id uint32, record MutPointerPreKeyRecord) Status
	RemovePreKey func(ctx unsafe.Pointer, id uint32) Status
}

type SignedPreKeyStoreFuncs struct {
	LoadSignedPreKey  func(ctx unsafe.Pointer, recordp *MutPointerSignedPreKeyRecord, id uint32) Status
	StoreSignedPreKey func(ctx unsafe.Pointer, id uint32, record MutPointerSignedPreKeyRecord) Status
}

type KyberPreKeyStoreFuncs struct {
	LoadKyberPreKey     func(ctx unsafe.Pointer, recordp *MutPointerKyberPreKeyRecord, id uint32) Status
	StoreKyberPreKey    func(ctx unsafe.Pointer, id uint32, record MutPointerKyberPreKeyRecord) Status
	MarkKyberPreKeyUsed func(ctx unsafe.Pointer, id uint32, ecPreKeyID uint32, baseKey MutPointerPublicKey) Status
}

// StoreFuncs is the complete store interface the engine is configured with,
// plus the dispatch trampoline.
type StoreFuncs struct {
	Session      SessionStoreFuncs
	Identity     IdentityKeyStoreFuncs
	PreKey       PreKeyStoreFuncs
	SignedPreKey SignedPreKeyStoreFuncs
	KyberPreKey  KyberPreKeyStoreFuncs
	Dispatch     DispatchFunc
}

// Exports returns the store interface populated with the process-wide
// adapters. The functions are package-level, so their addresses never change
// and later registrations take effect without reconfiguring the engine.
func Exports() StoreFuncs {
	return StoreFuncs{
		Session: SessionStoreFuncs{
			LoadSession:  LoadSession,
			StoreSession: StoreSession,
		},
		Identity: IdentityKeyStoreFuncs{
			GetIdentityKeyPair:     GetIdentityKeyPair,
			GetLocalRegistrationID: GetLocalRegistrationID,
			SaveIdentityKey:        SaveIdentityKey,
			GetIdentityKey:         GetIdentityKey,
			IsTrustedIdentity:      IsTrustedIdentity,
		},
		PreKey: PreKeyStoreFuncs{
			LoadPreKey:   LoadPreKey,
			StorePreKey:  StorePreKey,
			RemovePreKey: RemovePreKey,
		},
		SignedPreKey: SignedPreKeyStoreFuncs{
			LoadSignedPreKey:  LoadSignedPreKey,
			StoreSignedPreKey: StoreSignedPreKey,
		},
		KyberPreKey: KyberPreKeyStoreFuncs{
			LoadKyberPreKey:     LoadKyberPreKey,
			StoreKyberPreKey:    StoreKyberPreKey,
			MarkKyberPreKeyUsed: MarkKyberPreKeyUsed,
		},
		Dispatch: Dispatch,
	}
}

// StoreFuncs returns the store interface bound to r's adapters.
func (r *Registry) StoreFuncs() StoreFuncs {
	return StoreFuncs{
		Session: SessionStoreFuncs{
			LoadSession:  r.LoadSession,
			StoreSession: r.StoreSession,
		},
		Identity: IdentityKeyStoreFuncs{
			GetIdentityKeyPair:     r.GetIdentityKeyPair,
			GetLocalRegistrationID: r.GetLocalRegistrationID,
			SaveIdentityKey:        r.SaveIdentityKey,
			GetIdentityKey:         r.GetIdentityKey,
			IsTrustedIdentity:      r.IsTrustedIdentity,
		},
		PreKey: PreKeyStoreFuncs{
			LoadPreKey:   r.LoadPreKey,
			StorePreKey:  r.StorePreKey,
			RemovePreKey: r.RemovePreKey,
		},
		SignedPreKey: SignedPreKeyStoreFuncs{
			LoadSignedPreKey:  r.LoadSignedPreKey,
			StoreSignedPreKey: r.StoreSignedPreKey,
		},
		KyberPreKey: KyberPreKeyStoreFuncs{
			LoadKyberPreKey:     r.LoadKyberPreKey,
			StoreKyberPreKey:    r.StoreKyberPreKey,
			MarkKyberPreKeyUsed: r.MarkKyberPreKeyUsed,
		},
		Dispatch: r.Dispatch,
	}
}
