package bridge

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
)

// CallArgsVersion is the layout version of CallArgs and its wire form.
const CallArgsVersion = 1

var (
	ErrBadCallArgs     = errors.New("address does not name call arguments")
	ErrCallArgsVersion = errors.New("unsupported call arguments version")
)

// CallArgs carries the parameters of one dispatch-routed store call. The
// dispatch handler receives it by address (a Handle) and uses Op to decide how
// to read the remaining fields, which follow the handler shapes:
//
//	ShapePointer: Arg1 = out
//	ShapePair:    Arg1 = a, Arg2 = b
//	ShapeScalar:  Arg1 = a, Arg2 = b, Scalar = direction or key id
//
// Arg3 is reserved and always nil in version 1.
type CallArgs struct {
	Version uint32
	Op      Op
	Context unsafe.Pointer
	Arg1    unsafe.Pointer
	Arg2    unsafe.Pointer
	Arg3    unsafe.Pointer
	Scalar  uint32
}

// LoadCallArgs returns the CallArgs named by addr.
func LoadCallArgs(addr uintptr) (*CallArgs, error) {
	v, ok := LookupHandle(Handle(addr))
	if !ok {
		return nil, fmt.Errorf("bridge: load call args %#x: %w", addr, ErrBadCallArgs)
	}
	args, ok := v.(*CallArgs)
	if !ok || args == nil {
		return nil, fmt.Errorf("bridge: load call args %#x: holds %T: %w", addr, v, ErrBadCallArgs)
	}
	if args.Version != CallArgsVersion {
		return nil, fmt.Errorf("bridge: load call args: version %d: %w", args.Version, ErrCallArgsVersion)
	}
	return args, nil
}

// Wire field numbers. Addresses are fixed64, everything else varint.
const (
	fieldVersion protowire.Number = 1
	fieldOp      protowire.Number = 2
	fieldContext protowire.Number = 3
	fieldArg1    protowire.Number = 4
	fieldArg2    protowire.Number = 5
	fieldArg3    protowire.Number = 6
	fieldScalar  protowire.Number = 7
)

// CallFrame is the decoded wire form of CallArgs. Addresses stay integers:
// they refer to engine memory and are only meaningful to the engine's process.
type CallFrame struct {
	Version uint32
	Op      Op
	Context uintptr
	Arg1    uintptr
	Arg2    uintptr
	Arg3    uintptr
	Scalar  uint32
}

// Frame returns the addresses and scalars of a as a CallFrame.
func (a *CallArgs) Frame() CallFrame {
	return CallFrame{
		Version: a.Version,
		Op:      a.Op,
		Context: uintptr(a.Context),
		Arg1:    uintptr(a.Arg1),
		Arg2:    uintptr(a.Arg2),
		Arg3:    uintptr(a.Arg3),
		Scalar:  a.Scalar,
	}
}

// MarshalBinary encodes a in the protobuf wire format. Zero-valued fields are
// omitted except the version.
func (a *CallArgs) MarshalBinary() ([]byte, error) {
	return a.Frame().AppendBinary(nil)
}

// AppendBinary appends the wire form of f to b.
func (f CallFrame) AppendBinary(b []byte) ([]byte, error) {
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.Version))
	if f.Op != 0 {
		b = protowire.AppendTag(b, fieldOp, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.Op))
	}
	for _, a := range []struct {
		num  protowire.Number
		addr uintptr
	}{
		{fieldContext, f.Context},
		{fieldArg1, f.Arg1},
		{fieldArg2, f.Arg2},
		{fieldArg3, f.Arg3},
	} {
		if a.addr == 0 {
			continue
		}
		b = protowire.AppendTag(b, a.num, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, uint64(a.addr))
	}
	if f.Scalar != 0 {
		b = protowire.AppendTag(b, fieldScalar, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.Scalar))
	}
	return b, nil
}

// DecodeCallFrame parses the wire form produced by MarshalBinary. Unknown
// fields are skipped; a missing or unsupported version is an error.
func DecodeCallFrame(b []byte) (CallFrame, error) {
	var f CallFrame
	seenVersion := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return CallFrame{}, fmt.Errorf("bridge: decode call frame: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && (num == fieldVersion || num == fieldOp || num == fieldScalar):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return CallFrame{}, fmt.Errorf("bridge: decode call frame field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			if v > math.MaxUint32 {
				return CallFrame{}, fmt.Errorf("bridge: decode call frame field %d: value %d overflows uint32: %w", num, v, ErrBadCallArgs)
			}
			switch num {
			case fieldVersion:
				f.Version = uint32(v)
				seenVersion = true
			case fieldOp:
				f.Op = Op(v)
			case fieldScalar:
				f.Scalar = uint32(v)
			}
		case typ == protowire.Fixed64Type && num >= fieldContext && num <= fieldArg3:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return CallFrame{}, fmt.Errorf("bridge: decode call frame field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldContext:
				f.Context = uintptr(v)
			case fieldArg1:
				f.Arg1 = uintptr(v)
			case fieldArg2:
				f.Arg2 = uintptr(v)
			case fieldArg3:
				f.Arg3 = uintptr(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return CallFrame{}, fmt.Errorf("bridge: decode call frame field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !seenVersion || f.Version != CallArgsVersion {
		return CallFrame{}, fmt.Errorf("bridge: decode call frame: version %d: %w", f.Version, ErrCallArgsVersion)
	}
	return f, nil
}
