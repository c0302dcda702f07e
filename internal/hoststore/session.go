package hoststore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gwillem/signal-bridge/internal/engine"
)

// LoadSession loads a session record for the given address.
// Returns nil, nil if no session exists.
func (s *Store) LoadSession(address *engine.Address) (*engine.SessionRecord, error) {
	var record []byte
	err := s.db.QueryRow(
		"SELECT record FROM session WHERE address = ? AND device_id = ?",
		address.Name, address.DeviceID,
	).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("hoststore: load session: %w", err)
	}
	return &engine.SessionRecord{Data: record}, nil
}

// StoreSession stores a session record for the given address.
func (s *Store) StoreSession(address *engine.Address, record *engine.SessionRecord) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO session (address, device_id, record) VALUES (?, ?, ?)",
		address.Name, address.DeviceID, record.Data,
	)
	if err != nil {
		return fmt.Errorf("hoststore: store session: %w", err)
	}
	return nil
}

// ArchiveSession deletes the session record for the given address.
func (s *Store) ArchiveSession(address *engine.Address) error {
	_, err := s.db.Exec(
		"DELETE FROM session WHERE address = ? AND device_id = ?",
		address.Name, address.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("hoststore: archive session: %w", err)
	}
	return nil
}
