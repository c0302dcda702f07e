package bridge

import "unsafe"

// dispatcher sends every store call through one dispatch function.
type dispatcher struct {
	send DispatchFunc
}

// call publishes args as a handle for the duration of one dispatch.
func (d dispatcher) call(op Op, ctx, a, b unsafe.Pointer, scalar uint32) Status {
	args := &CallArgs{
		Version: CallArgsVersion,
		Op:      op,
		Context: ctx,
		Arg1:    a,
		Arg2:    b,
		Scalar:  scalar,
	}
	h := NewHandle(args)
	defer h.Delete()
	return d.send(uintptr(h))
}

// DispatchStore returns a store interface whose every operation is routed
// through r's dispatch handler instead of the per-operation slots. Arguments
// are repacked exactly as the direct adapters do and carried in a CallArgs
// tagged with the operation. Hosts that can register only one callable use
// this together with a dispatch handler such as Mux.
func (r *Registry) DispatchStore() StoreFuncs {
	return dispatcher{send: r.Dispatch}.store()
}

// NativeDispatchStore is DispatchStore for the process-wide registry, entering
// it through the native trampoline at TrampolineAddress.
func NativeDispatchStore() StoreFuncs {
	return dispatcher{send: func(argsAddress uintptr) Status {
		return callNative(OpDispatch, argsAddress)
	}}.store()
}

func (d dispatcher) store() StoreFuncs {
	return StoreFuncs{
		Session: SessionStoreFuncs{
			LoadSession: func(ctx unsafe.Pointer, recordp *MutPointerSessionRecord, address ConstPointerProtocolAddress) Status {
				return d.call(OpLoadSession, ctx, unsafe.Pointer(recordp), unsafe.Pointer(&address), 0)
			},
			StoreSession: func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, record ConstPointerSessionRecord) Status {
				return d.call(OpStoreSession, ctx, unsafe.Pointer(&address), unsafe.Pointer(&record), 0)
			},
		},
		Identity: IdentityKeyStoreFuncs{
			GetIdentityKeyPair: func(ctx unsafe.Pointer, keyp *MutPointerPrivateKey) Status {
				return d.call(OpGetIdentityKeyPair, ctx, unsafe.Pointer(keyp), nil, 0)
			},
			GetLocalRegistrationID: func(ctx unsafe.Pointer, idp *uint32) Status {
				return d.call(OpGetLocalRegistrationID, ctx, unsafe.Pointer(idp), nil, 0)
			},
			SaveIdentityKey: func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey) Status {
				return d.call(OpSaveIdentityKey, ctx, unsafe.Pointer(&address), unsafe.Pointer(&publicKey), 0)
			},
			GetIdentityKey: func(ctx unsafe.Pointer, keyp *MutPointerPublicKey, address ConstPointerProtocolAddress) Status {
				return d.call(OpGetIdentityKey, ctx, unsafe.Pointer(keyp), unsafe.Pointer(&address), 0)
			},
			IsTrustedIdentity: func(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey, direction uint32) Status {
				return d.call(OpIsTrustedIdentity, ctx, unsafe.Pointer(&address), unsafe.Pointer(&publicKey), direction)
			},
		},
		PreKey: PreKeyStoreFuncs{
			LoadPreKey: func(ctx unsafe.Pointer, recordp *MutPointerPreKeyRecord, id uint32) Status {
				return d.call(OpLoadPreKey, ctx, unsafe.Pointer(recordp), nil, id)
			},
			StorePreKey: func(ctx unsafe.Pointer, id uint32, record MutPointerPreKeyRecord) Status {
				return d.call(OpStorePreKey, ctx, unsafe.Pointer(&record), nil, id)
			},
			RemovePreKey: func(ctx unsafe.Pointer, id uint32) Status {
				return d.call(OpRemovePreKey, ctx, nil, nil, id)
			},
		},
		SignedPreKey: SignedPreKeyStoreFuncs{
			LoadSignedPreKey: func(ctx unsafe.Pointer, recordp *MutPointerSignedPreKeyRecord, id uint32) Status {
				return d.call(OpLoadSignedPreKey, ctx, unsafe.Pointer(recordp), nil, id)
			},
			StoreSignedPreKey: func(ctx unsafe.Pointer, id uint32, record MutPointerSignedPreKeyRecord) Status {
				return d.call(OpStoreSignedPreKey, ctx, unsafe.Pointer(&record), nil, id)
			},
		},
		KyberPreKey: KyberPreKeyStoreFuncs{
			LoadKyberPreKey: func(ctx unsafe.Pointer, recordp *MutPointerKyberPreKeyRecord, id uint32) Status {
				return d.call(OpLoadKyberPreKey, ctx, unsafe.Pointer(recordp), nil, id)
			},
			StoreKyberPreKey: func(ctx unsafe.Pointer, id uint32, record MutPointerKyberPreKeyRecord) Status {
				return d.call(OpStoreKyberPreKey, ctx, unsafe.Pointer(&record), nil, id)
			},
			MarkKyberPreKeyUsed: func(ctx unsafe.Pointer, id uint32, ecPreKeyID uint32, baseKey MutPointerPublicKey) Status {
				return d.call(OpMarkKyberPreKeyUsed, ctx, unsafe.Pointer(&baseKey), unsafe.Pointer(&ecPreKeyID), id)
			},
		},
		Dispatch: d.send,
	}
}

// Mux returns a dispatch handler that loads the CallArgs it is given and
// invokes r's handler for args.Op. It is the host-side counterpart of
// DispatchStore: register the store handlers on one registry, and Mux of that
// registry as the dispatch handler of another.
func (r *Registry) Mux() DispatchFunc {
	return func(addr uintptr) Status {
		args, err := LoadCallArgs(addr)
		if err != nil {
			logf("mux: %v", err)
			return StatusBadArgs
		}
		if !args.Op.IsStore() {
			logf("mux: cannot route %v", args.Op)
			return StatusBadArgs
		}
		h, ok := r.Lookup(args.Op)
		if !ok {
			return StatusNotRegistered
		}
		switch f := h.(type) {
		case PointerHandler:
			return f(args.Context, args.Arg1)
		case PairHandler:
			return f(args.Context, args.Arg1, args.Arg2)
		case ScalarHandler:
			return f(args.Context, args.Arg1, args.Arg2, args.Scalar)
		}
		return StatusBadArgs
	}
}
