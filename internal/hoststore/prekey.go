package hoststore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gwillem/signal-bridge/internal/engine"
)

// LoadPreKey loads a one-time pre-key record by ID.
func (s *Store) LoadPreKey(id uint32) (*engine.PreKeyRecord, error) {
	var record []byte
	err := s.db.QueryRow(
		"SELECT record FROM pre_key WHERE id = ?", id,
	).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pre-key %d not found", id)
		}
		return nil, fmt.Errorf("hoststore: load pre-key: %w", err)
	}
	return &engine.PreKeyRecord{ID: id, Data: record}, nil
}

// StorePreKey stores a one-time pre-key record.
func (s *Store) StorePreKey(id uint32, record *engine.PreKeyRecord) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO pre_key (id, record) VALUES (?, ?)",
		id, record.Data,
	)
	if err != nil {
		return fmt.Errorf("hoststore: store pre-key: %w", err)
	}
	return nil
}

// RemovePreKey deletes a one-time pre-key record.
func (s *Store) RemovePreKey(id uint32) error {
	_, err := s.db.Exec("DELETE FROM pre_key WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("hoststore: remove pre-key: %w", err)
	}
	return nil
}

// LoadSignedPreKey loads a signed pre-key record by ID.
func (s *Store) LoadSignedPreKey(id uint32) (*engine.SignedPreKeyRecord, error) {
	var record []byte
	err := s.db.QueryRow(
		"SELECT record FROM signed_pre_key WHERE id = ?", id,
	).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("signed pre-key %d not found", id)
		}
		return nil, fmt.Errorf("hoststore: load signed pre-key: %w", err)
	}
	return &engine.SignedPreKeyRecord{ID: id, Data: record}, nil
}

// StoreSignedPreKey stores a signed pre-key record.
func (s *Store) StoreSignedPreKey(id uint32, record *engine.SignedPreKeyRecord) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO signed_pre_key (id, record) VALUES (?, ?)",
		id, record.Data,
	)
	if err != nil {
		return fmt.Errorf("hoststore: store signed pre-key: %w", err)
	}
	return nil
}

// LoadKyberPreKey loads a Kyber pre-key record by ID.
func (s *Store) LoadKyberPreKey(id uint32) (*engine.KyberPreKeyRecord, error) {
	var record []byte
	err := s.db.QueryRow(
		"SELECT record FROM kyber_pre_key WHERE id = ?", id,
	).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("kyber pre-key %d not found", id)
		}
		return nil, fmt.Errorf("hoststore: load kyber pre-key: %w", err)
	}
	return &engine.KyberPreKeyRecord{ID: id, Data: record}, nil
}

// StoreKyberPreKey stores a Kyber pre-key record.
func (s *Store) StoreKyberPreKey(id uint32, record *engine.KyberPreKeyRecord) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kyber_pre_key (id, record) VALUES (?, ?)",
		id, record.Data,
	)
	if err != nil {
		return fmt.Errorf("hoststore: store kyber pre-key: %w", err)
	}
	return nil
}

// MarkKyberPreKeyUsed marks a Kyber pre-key as used and records the EC
// pre-key id it was used with. Marking twice is not an error.
func (s *Store) MarkKyberPreKeyUsed(id uint32, ecPreKeyID uint32) error {
	res, err := s.db.Exec(
		"UPDATE kyber_pre_key SET used = 1, ec_pre_key_id = ? WHERE id = ?", ecPreKeyID, id,
	)
	if err != nil {
		return fmt.Errorf("hoststore: mark kyber pre-key used: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("kyber pre-key %d not found", id)
	}
	return nil
}

// KyberPreKeyUsed reports whether the Kyber pre-key has been marked used.
func (s *Store) KyberPreKeyUsed(id uint32) (bool, error) {
	var used int
	err := s.db.QueryRow("SELECT used FROM kyber_pre_key WHERE id = ?", id).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("hoststore: kyber pre-key used: %w", err)
	}
	return used != 0, nil
}
