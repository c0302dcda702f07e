package bridge

import "unsafe"

// Handlers take a deliberately weaker signature than the engine's adapters:
// the store context plus up to two generic pointers and, for some operations,
// one untyped scalar. Each shape is its own type so a handler can only be
// installed on an operation that calls it with that shape.

// PointerHandler serves GetIdentityKeyPair and GetLocalRegistrationId.
type PointerHandler func(ctx, out unsafe.Pointer) Status

// PairHandler serves LoadSession, StoreSession, SaveIdentityKey and
// GetIdentityKey.
type PairHandler func(ctx, a, b unsafe.Pointer) Status

// ScalarHandler serves IsTrustedIdentity, where scalar is the direction, and
// the pre-key operations, where scalar is the key id. The handler interprets
// the scalar according to the operation it was registered for.
type ScalarHandler func(ctx, a, b unsafe.Pointer, scalar uint32) Status

// DispatchFunc is the generic dispatch handler. argsAddress names a CallArgs
// (see LoadCallArgs); the handler interprets its layout.
type DispatchFunc func(argsAddress uintptr) Status

// Handler is implemented by the four handler shapes.
type Handler interface {
	shape() Shape
}

func (PointerHandler) shape() Shape { return ShapePointer }
func (PairHandler) shape() Shape    { return ShapePair }
func (ScalarHandler) shape() Shape  { return ShapeScalar }
func (DispatchFunc) shape() Shape   { return ShapeDispatch }

// Shape names a handler signature.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapePointer
	ShapePair
	ShapeScalar
	ShapeDispatch
)

func (s Shape) String() string {
	switch s {
	case ShapePointer:
		return "(ctx, out)"
	case ShapePair:
		return "(ctx, a, b)"
	case ShapeScalar:
		return "(ctx, a, b, scalar)"
	case ShapeDispatch:
		return "(argsAddress)"
	}
	return "none"
}

// ShapeOf returns the handler shape op requires, or ShapeNone for an unknown op.
func ShapeOf(op Op) Shape {
	switch op {
	case OpGetIdentityKeyPair, OpGetLocalRegistrationID:
		return ShapePointer
	case OpLoadSession, OpStoreSession, OpSaveIdentityKey, OpGetIdentityKey:
		return ShapePair
	case OpIsTrustedIdentity,
		OpLoadPreKey, OpStorePreKey, OpRemovePreKey,
		OpLoadSignedPreKey, OpStoreSignedPreKey,
		OpLoadKyberPreKey, OpStoreKyberPreKey, OpMarkKyberPreKeyUsed:
		return ShapeScalar
	case OpDispatch:
		return ShapeDispatch
	}
	return ShapeNone
}

// isNil reports whether h carries no callable.
func isNil(h Handler) bool {
	switch f := h.(type) {
	case nil:
		return true
	case PointerHandler:
		return f == nil
	case PairHandler:
		return f == nil
	case ScalarHandler:
		return f == nil
	case DispatchFunc:
		return f == nil
	}
	return true
}
