// Package uistate implements component O (spec.md §6): the persisted
// open/closed state of the GUI's collapsible inspector sections,
// keyed by `<panelPrefix>Main`, `<prefix>Video`, `<prefix>Audio`,
// `<prefix>Subtitle` and `<prefix>Attributes`. The core treats the
// actual widget layout as an external collaborator (spec.md §1); this
// package only owns the durable 0/1 flag per key.
//
// Grounded on go.etcd.io/bbolt, a dependency the teacher carries in
// go.mod without ever importing — this gives it a home instead of
// dropping it.
package uistate

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("panels")

// Section names the five collapsible sections a panel can have.
type Section string

// Sections spec.md §6 names.
const (
	SectionMain       Section = "Main"
	SectionVideo      Section = "Video"
	SectionAudio      Section = "Audio"
	SectionSubtitle   Section = "Subtitle"
	SectionAttributes Section = "Attributes"
)

// Store is a bolt-backed key/value store of per-panel open states.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the bolt database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("could not open uistate db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create panels bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(panelPrefix string, section Section) []byte {
	return []byte(panelPrefix + string(section))
}

// IsOpen reports whether the section for panelPrefix is open. Absent
// keys default to open, matching a freshly installed GUI where every
// section starts expanded.
func (s *Store) IsOpen(panelPrefix string, section Section) (bool, error) {
	open := true
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key(panelPrefix, section))
		if v == nil {
			return nil
		}
		open = v[0] == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("could not read panel state: %w", err)
	}
	return open, nil
}

// SetOpen persists whether the section for panelPrefix is open.
func (s *Store) SetOpen(panelPrefix string, section Section, open bool) error {
	v := byte(0)
	if open {
		v = 1
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key(panelPrefix, section), []byte{v})
	})
	if err != nil {
		return fmt.Errorf("could not write panel state: %w", err)
	}
	return nil
}
