package bridge

import "unsafe"

// The engine passes its objects wrapped in one-field structs. Raw points at
// engine-owned memory and is never dereferenced by the bridge.

type MutPointerSessionRecord struct{ Raw unsafe.Pointer }

type ConstPointerSessionRecord struct{ Raw unsafe.Pointer }

type ConstPointerProtocolAddress struct{ Raw unsafe.Pointer }

type MutPointerPrivateKey struct{ Raw unsafe.Pointer }

type ConstPointerPublicKey struct{ Raw unsafe.Pointer }

type MutPointerPublicKey struct{ Raw unsafe.Pointer }

type MutPointerPreKeyRecord struct{ Raw unsafe.Pointer }

type MutPointerSignedPreKeyRecord struct{ Raw unsafe.Pointer }

type MutPointerKyberPreKeyRecord struct{ Raw unsafe.Pointer }
