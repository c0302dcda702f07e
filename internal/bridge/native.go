package bridge

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Native entry points. Each process-wide adapter and the trampoline gets one
// C-ABI callback, created on first use and never released. A wrapper struct
// holding a single pointer is passed in a register exactly like the pointer,
// so the callbacks take the Raw value and rebuild the wrapper.

var nativeExports = sync.OnceValue(func() [numOps]uintptr {
	var t [numOps]uintptr

	t[OpLoadSession] = purego.NewCallback(func(ctx, recordp, address unsafe.Pointer) Status {
		return LoadSession(ctx, (*MutPointerSessionRecord)(recordp), ConstPointerProtocolAddress{address})
	})
	t[OpStoreSession] = purego.NewCallback(func(ctx, address, record unsafe.Pointer) Status {
		return StoreSession(ctx, ConstPointerProtocolAddress{address}, ConstPointerSessionRecord{record})
	})

	t[OpGetIdentityKeyPair] = purego.NewCallback(func(ctx, keyp unsafe.Pointer) Status {
		return GetIdentityKeyPair(ctx, (*MutPointerPrivateKey)(keyp))
	})
	t[OpGetLocalRegistrationID] = purego.NewCallback(func(ctx, idp unsafe.Pointer) Status {
		return GetLocalRegistrationID(ctx, (*uint32)(idp))
	})
	t[OpSaveIdentityKey] = purego.NewCallback(func(ctx, address, publicKey unsafe.Pointer) Status {
		return SaveIdentityKey(ctx, ConstPointerProtocolAddress{address}, ConstPointerPublicKey{publicKey})
	})
	t[OpGetIdentityKey] = purego.NewCallback(func(ctx, keyp, address unsafe.Pointer) Status {
		return GetIdentityKey(ctx, (*MutPointerPublicKey)(keyp), ConstPointerProtocolAddress{address})
	})
	t[OpIsTrustedIdentity] = purego.NewCallback(func(ctx, address, publicKey unsafe.Pointer, direction uint32) Status {
		return IsTrustedIdentity(ctx, ConstPointerProtocolAddress{address}, ConstPointerPublicKey{publicKey}, direction)
	})

	t[OpLoadPreKey] = purego.NewCallback(func(ctx, recordp unsafe.Pointer, id uint32) Status {
		return LoadPreKey(ctx, (*MutPointerPreKeyRecord)(recordp), id)
	})
	t[OpStorePreKey] = purego.NewCallback(func(ctx unsafe.Pointer, id uint32, record unsafe.Pointer) Status {
		return StorePreKey(ctx, id, MutPointerPreKeyRecord{record})
	})
	t[OpRemovePreKey] = purego.NewCallback(func(ctx unsafe.Pointer, id uint32) Status {
		return RemovePreKey(ctx, id)
	})
	t[OpLoadSignedPreKey] = purego.NewCallback(func(ctx, recordp unsafe.Pointer, id uint32) Status {
		return LoadSignedPreKey(ctx, (*MutPointerSignedPreKeyRecord)(recordp), id)
	})
	t[OpStoreSignedPreKey] = purego.NewCallback(func(ctx unsafe.Pointer, id uint32, record unsafe.Pointer) Status {
		return StoreSignedPreKey(ctx, id, MutPointerSignedPreKeyRecord{record})
	})
	t[OpLoadKyberPreKey] = purego.NewCallback(func(ctx, recordp unsafe.Pointer, id uint32) Status {
		return LoadKyberPreKey(ctx, (*MutPointerKyberPreKeyRecord)(recordp), id)
	})
	t[OpStoreKyberPreKey] = purego.NewCallback(func(ctx unsafe.Pointer, id uint32, record unsafe.Pointer) Status {
		return StoreKyberPreKey(ctx, id, MutPointerKyberPreKeyRecord{record})
	})
	t[OpMarkKyberPreKeyUsed] = purego.NewCallback(func(ctx unsafe.Pointer, id, ecPreKeyID uint32, baseKey unsafe.Pointer) Status {
		return MarkKyberPreKeyUsed(ctx, id, ecPreKeyID, MutPointerPublicKey{baseKey})
	})

	t[OpDispatch] = purego.NewCallback(func(argsAddress uintptr) Status {
		return Dispatch(argsAddress)
	})
	return t
})

// FunctionAddress returns the native entry point of the process-wide adapter
// for op, or of the trampoline for OpDispatch. It returns 0 for an unknown op.
// Addresses are stable for the life of the process.
func FunctionAddress(op Op) uintptr {
	if !op.Valid() {
		return 0
	}
	return nativeExports()[op]
}

// callNative calls the native entry point for op with C arguments.
//
//go:uintptrescapes
func callNative(op Op, args ...uintptr) Status {
	r1, _, _ := purego.SyscallN(FunctionAddress(op), args...)
	return Status(int32(r1))
}

// NativeStoreFuncs returns a store interface that reaches the process-wide
// adapters through their native entry points, the way a C engine configured
// with FunctionAddress does.
func NativeStoreFuncs() StoreFuncs {
	return StoreFuncs{
		Session: SessionStoreFuncs{
			LoadSession: func(ctx unsafe.Pointer, recordp *MutPointerSessionRecord, address ConstPointerProtocolAddress) Status {
				return callNative(OpLoadSession, uintptr(ctx), uintptr(unsafe.Pointer(recordp)), uintptr(address.Raw))
			},
			StoreSession: func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, record ConstPointerSessionRecord) Status {
				return callNative(OpStoreSession, uintptr(ctx), uintptr(address.Raw), uintptr(record.Raw))
			},
		},
		Identity: IdentityKeyStoreFuncs{
			GetIdentityKeyPair: func(ctx unsafe.Pointer, keyp *MutPointerPrivateKey) Status {
				return callNative(OpGetIdentityKeyPair, uintptr(ctx), uintptr(unsafe.Pointer(keyp)))
			},
			GetLocalRegistrationID: func(ctx unsafe.Pointer, idp *uint32) Status {
				return callNative(OpGetLocalRegistrationID, uintptr(ctx), uintptr(unsafe.Pointer(idp)))
			},
			SaveIdentityKey: func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey) Status {
				return callNative(OpSaveIdentityKey, uintptr(ctx), uintptr(address.Raw), uintptr(publicKey.Raw))
			},
			GetIdentityKey: func(ctx unsafe.Pointer, keyp *MutPointerPublicKey, address ConstPointerProtocolAddress) Status {
				return callNative(OpGetIdentityKey, uintptr(ctx), uintptr(unsafe.Pointer(keyp)), uintptr(address.Raw))
			},
			IsTrustedIdentity: func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey, direction uint32) Status {
				return callNative(OpIsTrustedIdentity, uintptr(ctx), uintptr(address.Raw), uintptr(publicKey.Raw), uintptr(direction))
			},
		},
		PreKey: PreKeyStoreFuncs{
			LoadPreKey: func(ctx unsafe.Pointer, recordp *MutPointerPreKeyRecord, id uint32) Status {
				return callNative(OpLoadPreKey, uintptr(ctx), uintptr(unsafe.Pointer(recordp)), uintptr(id))
			},
			StorePreKey: func(ctx unsafe.Pointer, id uint32, record MutPointerPreKeyRecord) Status {
				return callNative(OpStorePreKey, uintptr(ctx), uintptr(id), uintptr(record.Raw))
			},
			RemovePreKey: func(ctx unsafe.Pointer, id uint32) Status {
				return callNative(OpRemovePreKey, uintptr(ctx), uintptr(id))
			},
		},
		SignedPreKey: SignedPreKeyStoreFuncs{
			LoadSignedPreKey: func(ctx unsafe.Pointer, recordp *MutPointerSignedPreKeyRecord, id uint32) Status {
				return callNative(OpLoadSignedPreKey, uintptr(ctx), uintptr(unsafe.Pointer(recordp)), uintptr(id))
			},
			StoreSignedPreKey: func(ctx unsafe.Pointer, id uint32, record MutPointerSignedPreKeyRecord) Status {
				return callNative(OpStoreSignedPreKey, uintptr(ctx), uintptr(id), uintptr(record.Raw))
			},
		},
		KyberPreKey: KyberPreKeyStoreFuncs{
			LoadKyberPreKey: func(ctx unsafe.Pointer, recordp *MutPointerKyberPreKeyRecord, id uint32) Status {
				return callNative(OpLoadKyberPreKey, uintptr(ctx), uintptr(unsafe.Pointer(recordp)), uintptr(id))
			},
			StoreKyberPreKey: func(ctx unsafe.Pointer, id uint32, record MutPointerKyberPreKeyRecord) Status {
				return callNative(OpStoreKyberPreKey, uintptr(ctx), uintptr(id), uintptr(record.Raw))
			},
			MarkKyberPreKeyUsed: func(ctx unsafe.Pointer, id uint32, ecPreKeyID uint32, baseKey MutPointerPublicKey) Status {
				return callNative(OpMarkKyberPreKeyUsed, uintptr(ctx), uintptr(id), uintptr(ecPreKeyID), uintptr(baseKey.Raw))
			},
		},
		Dispatch: func(argsAddress uintptr) Status {
			return callNative(OpDispatch, argsAddress)
		},
	}
}
