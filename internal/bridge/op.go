package bridge

import "fmt"

// Op identifies a store operation. The numeric value doubles as the callback
// id carried by dispatch-routed calls.
type Op uint32

const (
	OpLoadSession Op = iota + 1
	OpStoreSession
	OpGetIdentityKeyPair
	OpGetLocalRegistrationID
	OpSaveIdentityKey
	OpGetIdentityKey
	OpIsTrustedIdentity
	OpLoadPreKey
	OpStorePreKey
	OpRemovePreKey
	OpLoadSignedPreKey
	OpStoreSignedPreKey
	OpLoadKyberPreKey
	OpStoreKyberPreKey
	OpMarkKyberPreKeyUsed
	OpDispatch

	numOps = int(OpDispatch) + 1
)

var opNames = [numOps]string{
	OpLoadSession:            "LoadSession",
	OpStoreSession:           "StoreSession",
	OpGetIdentityKeyPair:     "GetIdentityKeyPair",
	OpGetLocalRegistrationID: "GetLocalRegistrationId",
	OpSaveIdentityKey:        "SaveIdentityKey",
	OpGetIdentityKey:         "GetIdentityKey",
	OpIsTrustedIdentity:      "IsTrustedIdentity",
	OpLoadPreKey:             "LoadPreKey",
	OpStorePreKey:            "StorePreKey",
	OpRemovePreKey:           "RemovePreKey",
	OpLoadSignedPreKey:       "LoadSignedPreKey",
	OpStoreSignedPreKey:      "StoreSignedPreKey",
	OpLoadKyberPreKey:        "LoadKyberPreKey",
	OpStoreKyberPreKey:       "StoreKyberPreKey",
	OpMarkKyberPreKeyUsed:    "MarkKyberPreKeyUsed",
	OpDispatch:               "Dispatch",
}

func (op Op) String() string {
	if op.Valid() {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint32(op))
}

// Valid reports whether op is one of the known operations.
func (op Op) Valid() bool {
	return op >= OpLoadSession && op <= OpDispatch
}

// IsStore reports whether op is one of the fixed store operations, i.e. any
// valid op other than Dispatch.
func (op Op) IsStore() bool {
	return op >= OpLoadSession && op < OpDispatch
}

// Ops returns every operation in callback-id order, Dispatch last.
func Ops() []Op {
	ops := make([]Op, 0, numOps-1)
	for op := OpLoadSession; op <= OpDispatch; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Status is the integer result crossing the engine boundary. Zero is success,
// anything else is a failure the engine interprets.
type Status int32

const (
	StatusOK Status = 0
	// StatusNotRegistered is returned when the operation has no handler.
	StatusNotRegistered Status = 1
	// StatusBadArgs is returned by Mux when the call arguments cannot be loaded.
	StatusBadArgs Status = 2
	// StatusHandlerFailed is the conventional failure for host handlers.
	StatusHandlerFailed Status = -1
)

// OK reports whether s is StatusOK.
func (s Status) OK() bool { return s == StatusOK }
