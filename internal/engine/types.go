// Package engine is an in-process stand-in for the native protocol engine. It
// owns the objects the store contract refers to and drives the store functions
// the bridge exports the way the engine does during session setup and
// message processing. It performs no protocol cryptography.
package engine

import (
	"bytes"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// Address identifies a remote party's device.
type Address struct {
	Name     string
	DeviceID uint32
}

func (a *Address) String() string {
	return fmt.Sprintf("%s.%d", a.Name, a.DeviceID)
}

// Direction tells the identity store why trust is being checked.
type Direction uint32

const (
	Sending Direction = iota
	Receiving
)

// SessionRecord is a serialized session state.
type SessionRecord struct {
	Data []byte
}

// PublicKey is a serialized Curve25519 public key.
type PublicKey struct {
	Data []byte
}

// Equal reports whether k and other hold the same key bytes.
func (k *PublicKey) Equal(other *PublicKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return bytes.Equal(k.Data, other.Data)
}

// PrivateKey is a Curve25519 private key.
type PrivateKey struct {
	Data []byte
}

// GeneratePrivateKey returns a new random Curve25519 private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	priv := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(priv); err != nil {
		return nil, fmt.Errorf("engine: generate private key: %w", err)
	}
	return &PrivateKey{Data: priv}, nil
}

// PublicKey derives the public key for k.
func (k *PrivateKey) PublicKey() (*PublicKey, error) {
	pub, err := curve25519.X25519(k.Data, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("engine: derive public key: %w", err)
	}
	return &PublicKey{Data: pub}, nil
}

// PreKeyRecord is a one-time pre-key.
type PreKeyRecord struct {
	ID   uint32
	Data []byte
}

// SignedPreKeyRecord is a signed pre-key.
type SignedPreKeyRecord struct {
	ID   uint32
	Data []byte
}

// KyberPreKeyRecord is a post-quantum pre-key.
type KyberPreKeyRecord struct {
	ID   uint32
	Data []byte
}
