package engine

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gwillem/signal-bridge/internal/bridge"
)

// StatusUntrustedIdentity is the status an identity store returns from
// IsTrustedIdentity when the key is known and does not match.
const StatusUntrustedIdentity bridge.Status = 3

var ErrUntrustedIdentity = errors.New("untrusted identity")

// StoreError reports a nonzero status from a store function.
type StoreError struct {
	Op     bridge.Op
	Status bridge.Status
}

func (e *StoreError) Error() string {
	if e.Status == bridge.StatusNotRegistered {
		return fmt.Sprintf("engine: %v: no store callback registered", e.Op)
	}
	return fmt.Sprintf("engine: %v: store returned status %d", e.Op, e.Status)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrUntrustedIdentity && e.Op == bridge.OpIsTrustedIdentity && e.Status == StatusUntrustedIdentity
}

func check(op bridge.Op, s bridge.Status) error {
	if s == bridge.StatusOK {
		return nil
	}
	return &StoreError{Op: op, Status: s}
}

// Engine calls a configured store interface with an opaque context it never
// interprets.
type Engine struct {
	store bridge.StoreFuncs
	ctx   unsafe.Pointer
}

// New returns an engine configured with store. ctx is passed unchanged to
// every store call.
func New(store bridge.StoreFuncs, ctx unsafe.Pointer) *Engine {
	return &Engine{store: store, ctx: ctx}
}

func addrPtr(addr *Address) bridge.ConstPointerProtocolAddress {
	return bridge.ConstPointerProtocolAddress{Raw: unsafe.Pointer(addr)}
}

// LocalIdentity loads the local identity key and registration ID.
func (e *Engine) LocalIdentity() (*PrivateKey, uint32, error) {
	var keyp bridge.MutPointerPrivateKey
	if err := check(bridge.OpGetIdentityKeyPair, e.store.Identity.GetIdentityKeyPair(e.ctx, &keyp)); err != nil {
		return nil, 0, err
	}
	if keyp.Raw == nil {
		return nil, 0, fmt.Errorf("engine: identity key pair not set")
	}
	var regID uint32
	if err := check(bridge.OpGetLocalRegistrationID, e.store.Identity.GetLocalRegistrationID(e.ctx, &regID)); err != nil {
		return nil, 0, err
	}
	return (*PrivateKey)(keyp.Raw), regID, nil
}

// ProcessPreKeyBundle performs the store side of establishing a session with
// addr: check trust in the remote identity, save it, and store the new
// session.
func (e *Engine) ProcessPreKeyBundle(addr *Address, identity *PublicKey, session *SessionRecord) error {
	id := bridge.ConstPointerPublicKey{Raw: unsafe.Pointer(identity)}
	if err := check(bridge.OpIsTrustedIdentity, e.store.Identity.IsTrustedIdentity(e.ctx, addrPtr(addr), id, uint32(Sending))); err != nil {
		return err
	}
	if err := check(bridge.OpSaveIdentityKey, e.store.Identity.SaveIdentityKey(e.ctx, addrPtr(addr), id)); err != nil {
		return err
	}
	rec := bridge.ConstPointerSessionRecord{Raw: unsafe.Pointer(session)}
	return check(bridge.OpStoreSession, e.store.Session.StoreSession(e.ctx, addrPtr(addr), rec))
}

// ReceiveFrom checks the sender's identity for the receiving direction and
// loads the current session. A nil record means no session exists.
func (e *Engine) ReceiveFrom(addr *Address, identity *PublicKey) (*SessionRecord, error) {
	id := bridge.ConstPointerPublicKey{Raw: unsafe.Pointer(identity)}
	if err := check(bridge.OpIsTrustedIdentity, e.store.Identity.IsTrustedIdentity(e.ctx, addrPtr(addr), id, uint32(Receiving))); err != nil {
		return nil, err
	}
	return e.LoadSession(addr)
}

// LoadSession returns the session for addr, or nil if none is stored.
func (e *Engine) LoadSession(addr *Address) (*SessionRecord, error) {
	var recordp bridge.MutPointerSessionRecord
	if err := check(bridge.OpLoadSession, e.store.Session.LoadSession(e.ctx, &recordp, addrPtr(addr))); err != nil {
		return nil, err
	}
	return (*SessionRecord)(recordp.Raw), nil
}

// RemoteIdentity returns the saved identity for addr, or nil.
func (e *Engine) RemoteIdentity(addr *Address) (*PublicKey, error) {
	var keyp bridge.MutPointerPublicKey
	if err := check(bridge.OpGetIdentityKey, e.store.Identity.GetIdentityKey(e.ctx, &keyp, addrPtr(addr))); err != nil {
		return nil, err
	}
	return (*PublicKey)(keyp.Raw), nil
}

// InstallPreKeys stores freshly generated pre-keys. Any argument may be empty.
func (e *Engine) InstallPreKeys(preKeys []*PreKeyRecord, signed *SignedPreKeyRecord, kyber []*KyberPreKeyRecord) error {
	for _, pk := range preKeys {
		rec := bridge.MutPointerPreKeyRecord{Raw: unsafe.Pointer(pk)}
		if err := check(bridge.OpStorePreKey, e.store.PreKey.StorePreKey(e.ctx, pk.ID, rec)); err != nil {
			return err
		}
	}
	if signed != nil {
		rec := bridge.MutPointerSignedPreKeyRecord{Raw: unsafe.Pointer(signed)}
		if err := check(bridge.OpStoreSignedPreKey, e.store.SignedPreKey.StoreSignedPreKey(e.ctx, signed.ID, rec)); err != nil {
			return err
		}
	}
	for _, kk := range kyber {
		rec := bridge.MutPointerKyberPreKeyRecord{Raw: unsafe.Pointer(kk)}
		if err := check(bridge.OpStoreKyberPreKey, e.store.KyberPreKey.StoreKyberPreKey(e.ctx, kk.ID, rec)); err != nil {
			return err
		}
	}
	return nil
}

// PreKeyIDs names the pre-keys a pre-key message refers to. PreKey is zero
// when the sender used no one-time pre-key.
type PreKeyIDs struct {
	PreKey       uint32
	SignedPreKey uint32
	KyberPreKey  uint32
}

// ConsumedPreKeys holds the records loaded while consuming a pre-key message.
type ConsumedPreKeys struct {
	PreKey       *PreKeyRecord
	SignedPreKey *SignedPreKeyRecord
	KyberPreKey  *KyberPreKeyRecord
}

// ConsumePreKeys performs the store side of receiving a pre-key message: load
// the referenced pre-keys, mark the Kyber pre-key used (with the signed pre-key
// id and the sender's base key), and remove the one-time pre-key.
func (e *Engine) ConsumePreKeys(ids PreKeyIDs, baseKey *PublicKey) (*ConsumedPreKeys, error) {
	var out ConsumedPreKeys

	var signedp bridge.MutPointerSignedPreKeyRecord
	if err := check(bridge.OpLoadSignedPreKey, e.store.SignedPreKey.LoadSignedPreKey(e.ctx, &signedp, ids.SignedPreKey)); err != nil {
		return nil, err
	}
	out.SignedPreKey = (*SignedPreKeyRecord)(signedp.Raw)

	var kyberp bridge.MutPointerKyberPreKeyRecord
	if err := check(bridge.OpLoadKyberPreKey, e.store.KyberPreKey.LoadKyberPreKey(e.ctx, &kyberp, ids.KyberPreKey)); err != nil {
		return nil, err
	}
	out.KyberPreKey = (*KyberPreKeyRecord)(kyberp.Raw)

	if ids.PreKey != 0 {
		var prep bridge.MutPointerPreKeyRecord
		if err := check(bridge.OpLoadPreKey, e.store.PreKey.LoadPreKey(e.ctx, &prep, ids.PreKey)); err != nil {
			return nil, err
		}
		out.PreKey = (*PreKeyRecord)(prep.Raw)
	}

	base := bridge.MutPointerPublicKey{Raw: unsafe.Pointer(baseKey)}
	if err := check(bridge.OpMarkKyberPreKeyUsed, e.store.KyberPreKey.MarkKyberPreKeyUsed(e.ctx, ids.KyberPreKey, ids.SignedPreKey, base)); err != nil {
		return nil, err
	}
	if ids.PreKey != 0 {
		if err := check(bridge.OpRemovePreKey, e.store.PreKey.RemovePreKey(e.ctx, ids.PreKey)); err != nil {
			return nil, err
		}
	}
	return &out, nil
}
