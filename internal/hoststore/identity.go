package hoststore

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gwillem/signal-bridge/internal/engine"
)

const (
	accountIdentityKey    = "identity_key"
	accountRegistrationID = "registration_id"
)

// SetIdentity stores the local identity key pair and registration ID.
func (s *Store) SetIdentity(key *engine.PrivateKey, registrationID uint32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("hoststore: set identity: %w", err)
	}
	defer tx.Rollback()

	regID := binary.BigEndian.AppendUint32(nil, registrationID)
	for k, v := range map[string][]byte{
		accountIdentityKey:    key.Data,
		accountRegistrationID: regID,
	} {
		if _, err := tx.Exec("INSERT OR REPLACE INTO account (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("hoststore: set identity %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("hoststore: set identity: %w", err)
	}
	return nil
}

func (s *Store) accountValue(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM account WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("hoststore: load %s: %w", key, err)
	}
	return value, nil
}

// GetIdentityKeyPair returns the local identity key.
func (s *Store) GetIdentityKeyPair() (*engine.PrivateKey, error) {
	data, err := s.accountValue(accountIdentityKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("hoststore: identity key pair not set")
	}
	return &engine.PrivateKey{Data: data}, nil
}

// GetLocalRegistrationID returns the local registration ID.
func (s *Store) GetLocalRegistrationID() (uint32, error) {
	data, err := s.accountValue(accountRegistrationID)
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("hoststore: registration id not set")
	}
	return binary.BigEndian.Uint32(data), nil
}

// SaveIdentityKey stores a remote identity key for the given address.
// It reports whether an existing, different key was replaced.
func (s *Store) SaveIdentityKey(address *engine.Address, key *engine.PublicKey) (bool, error) {
	existing, err := s.GetIdentityKey(address)
	if err != nil {
		return false, err
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO identity (address, public_key) VALUES (?, ?)",
		address.Name, key.Data,
	)
	if err != nil {
		return false, fmt.Errorf("hoststore: save identity key: %w", err)
	}
	return existing != nil && !existing.Equal(key), nil
}

// GetIdentityKey loads a remote identity key for the given address.
// Returns nil, nil if no identity key exists for this address.
func (s *Store) GetIdentityKey(address *engine.Address) (*engine.PublicKey, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT public_key FROM identity WHERE address = ?", address.Name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("hoststore: load identity key: %w", err)
	}
	return &engine.PublicKey{Data: data}, nil
}

// IsTrustedIdentity checks whether a remote identity key is trusted.
// Uses trust-on-first-use (TOFU): unknown identities are trusted.
func (s *Store) IsTrustedIdentity(address *engine.Address, key *engine.PublicKey, direction engine.Direction) (bool, error) {
	existing, err := s.GetIdentityKey(address)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, nil
	}
	return existing.Equal(key), nil
}

// HasIdentity reports whether a local identity has been stored.
func (s *Store) HasIdentity() (bool, error) {
	data, err := s.accountValue(accountIdentityKey)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}
