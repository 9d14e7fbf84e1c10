// Package storage persists task attachments as opaque blobs in a pebble
// database, keyed by ksuid.
package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// ErrAttachmentNotFound is returned when no blob exists for an id.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentStore stores attachment blobs. Safe for concurrent use.
type AttachmentStore struct {
	db *pebble.DB
}

// Open opens (creating if necessary) the attachment database at path.
func Open(path string) (*AttachmentStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment store: %w", err)
	}
	return &AttachmentStore{db: db}, nil
}

// Create stores data under a freshly generated id and returns it.
func (s *AttachmentStore) Create(data []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.db.Set(id.Bytes(), data, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store attachment: %w", err)
	}
	return id, nil
}

// Read returns the blob stored under id.
func (s *AttachmentStore) Read(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// The returned slice is only valid until the closer is closed.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Update replaces the blob stored under id.
func (s *AttachmentStore) Update(id ksuid.KSUID, data []byte) error {
	if _, err := s.Read(id); err != nil {
		return err
	}
	return s.db.Set(id.Bytes(), data, pebble.Sync)
}

// Delete removes the blob stored under id.
func (s *AttachmentStore) Delete(id ksuid.KSUID) error {
	if _, err := s.Read(id); err != nil {
		return err
	}
	return s.db.Delete(id.Bytes(), pebble.Sync)
}

// List returns the ids of all stored attachments in key order.
func (s *AttachmentStore) List() ([]ksuid.KSUID, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			continue // not an attachment key
		}
		ids = append(ids, id)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *AttachmentStore) Close() error {
	return s.db.Close()
}
