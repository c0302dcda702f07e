package bridge

import "unsafe"

// Store adapters. Each has the engine's signature for one operation, looks up
// the registered handler, and passes by-value wrapper structs to it by
// address. The returned status is the handler's, unchanged. With no handler
// registered an adapter returns StatusNotRegistered before touching any of its
// arguments.

// --- Session store ---

func (r *Registry) LoadSession(ctx unsafe.Pointer, recordp *MutPointerSessionRecord, address ConstPointerProtocolAddress) Status {
	h := r.pair(OpLoadSession)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(recordp), unsafe.Pointer(&address))
}

func (r *Registry) StoreSession(ctx unsafe.Pointer, address ConstPointerProtocolAddress, record ConstPointerSessionRecord) Status {
	h := r.pair(OpStoreSession)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&address), unsafe.Pointer(&record))
}

// --- Identity key store ---

func (r *Registry) GetIdentityKeyPair(ctx unsafe.Pointer, keyp *MutPointerPrivateKey) Status {
	h := r.pointer(OpGetIdentityKeyPair)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(keyp))
}

func (r *Registry) GetLocalRegistrationID(ctx unsafe.Pointer, idp *uint32) Status {
	h := r.pointer(OpGetLocalRegistrationID)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(idp))
}

func (r *Registry) SaveIdentityKey(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey) Status {
	h := r.pair(OpSaveIdentityKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&address), unsafe.Pointer(&publicKey))
}

func (r *Registry) GetIdentityKey(ctx unsafe.Pointer, keyp *MutPointerPublicKey, address ConstPointerProtocolAddress) Status {
	h := r.pair(OpGetIdentityKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(keyp), unsafe.Pointer(&address))
}

func (r *Registry) IsTrustedIdentity(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey, direction uint32) Status {
	h := r.scalar(OpIsTrustedIdentity)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&address), unsafe.Pointer(&publicKey), direction)
}

// --- Pre-key store ---

func (r *Registry) LoadPreKey(ctx unsafe.Pointer, recordp *MutPointerPreKeyRecord, id uint32) Status {
	h := r.scalar(OpLoadPreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(recordp), nil, id)
}

func (r *Registry) StorePreKey(ctx unsafe.Pointer, id uint32, record MutPointerPreKeyRecord) Status {
	h := r.scalar(OpStorePreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&record), nil, id)
}

func (r *Registry) RemovePreKey(ctx unsafe.Pointer, id uint32) Status {
	h := r.scalar(OpRemovePreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, nil, nil, id)
}

// --- Signed pre-key store ---

func (r *Registry) LoadSignedPreKey(ctx unsafe.Pointer, recordp *MutPointerSignedPreKeyRecord, id uint32) Status {
	h := r.scalar(OpLoadSignedPreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(recordp), nil, id)
}

func (r *Registry) StoreSignedPreKey(ctx unsafe.Pointer, id uint32, record MutPointerSignedPreKeyRecord) Status {
	h := r.scalar(OpStoreSignedPreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&record), nil, id)
}

// --- Kyber pre-key store ---

func (r *Registry) LoadKyberPreKey(ctx unsafe.Pointer, recordp *MutPointerKyberPreKeyRecord, id uint32) Status {
	h := r.scalar(OpLoadKyberPreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(recordp), nil, id)
}

func (r *Registry) StoreKyberPreKey(ctx unsafe.Pointer, id uint32, record MutPointerKyberPreKeyRecord) Status {
	h := r.scalar(OpStoreKyberPreKey)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&record), nil, id)
}

// MarkKyberPreKeyUsed passes the base key wrapper as a and a pointer to
// ecPreKeyID as b; id is the scalar.
func (r *Registry) MarkKyberPreKeyUsed(ctx unsafe.Pointer, id uint32, ecPreKeyID uint32, baseKey MutPointerPublicKey) Status {
	h := r.scalar(OpMarkKyberPreKeyUsed)
	if h == nil {
		return StatusNotRegistered
	}
	return h(ctx, unsafe.Pointer(&baseKey), unsafe.Pointer(&ecPreKeyID), id)
}

// --- Process-wide adapters, bound to Default ---

func LoadSession(ctx unsafe.Pointer, recordp *MutPointerSessionRecord, address ConstPointerProtocolAddress) Status {
	return Default().LoadSession(ctx, recordp, address)
}

func StoreSession(ctx unsafe.Pointer, address ConstPointerProtocolAddress, record ConstPointerSessionRecord) Status {
	return Default().StoreSession(ctx, address, record)
}

func GetIdentityKeyPair(ctx unsafe.Pointer, keyp *MutPointerPrivateKey) Status {
	return Default().GetIdentityKeyPair(ctx, keyp)
}

func GetLocalRegistrationID(ctx unsafe.Pointer, idp *uint32) Status {
	return Default().GetLocalRegistrationID(ctx, idp)
}

func SaveIdentityKey(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey) Status {
	return Default().SaveIdentityKey(ctx, address, publicKey)
}

func GetIdentityKey(ctx unsafe.Pointer, keyp *MutPointerPublicKey, address ConstPointerProtocolAddress) Status {
	return Default().GetIdentityKey(ctx, keyp, address)
}

func IsTrustedIdentity(ctx unsafe.Pointer, address ConstPointerProtocolAddress, publicKey ConstPointerPublicKey, direction uint32) Status {
	return Default().IsTrustedIdentity(ctx, address, publicKey, direction)
}

func LoadPreKey(ctx unsafe.Pointer, recordp *MutPointerPreKeyRecord, id uint32) Status {
	return Default().LoadPreKey(ctx, recordp, id)
}

func StorePreKey(ctx unsafe.Pointer, id uint32, record MutPointerPreKeyRecord) Status {
	return Default().StorePreKey(ctx, id, record)
}

func RemovePreKey(ctx unsafe.Pointer, id uint32) Status {
	return Default().RemovePreKey(ctx, id)
}

func LoadSignedPreKey(ctx unsafe.Pointer, recordp *MutPointerSignedPreKeyRecord, id uint32) Status {
	return Default().LoadSignedPreKey(ctx, recordp, id)
}

func StoreSignedPreKey(ctx unsafe.Pointer, id uint32, record MutPointerSignedPreKeyRecord) Status {
	return Default().StoreSignedPreKey(ctx, id, record)
}

func LoadKyberPreKey(ctx unsafe.Pointer, recordp *MutPointerKyberPreKeyRecord, id uint32) Status {
	return Default().LoadKyberPreKey(ctx, recordp, id)
}

func StoreKyberPreKey(ctx unsafe.Pointer, id uint32, record MutPointerKyberPreKeyRecord) Status {
	return Default().StoreKyberPreKey(ctx, id, record)
}

func MarkKyberPreKeyUsed(ctx unsafe.Pointer, id uint32, ecPreKeyID uint32, baseKey MutPointerPublicKey) Status {
	return Default().MarkKyberPreKeyUsed(ctx, id, ecPreKeyID, baseKey)
}
