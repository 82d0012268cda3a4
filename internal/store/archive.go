package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/mindflow/mindflow/internal/models"
)

// ErrTranscriptNotFound is returned when no archived transcript exists
// for a session.
var ErrTranscriptNotFound = errors.New("store: transcript not found")

const transcriptPrefix = "session:transcript:"

// Archive stores completed session transcripts in an embedded Badger
// database.
type Archive struct {
	db *badger.DB
}

// NewArchive opens (or creates) the archive at dir.
func NewArchive(dir string) (*Archive, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func transcriptKey(sessionID string) []byte {
	return []byte(transcriptPrefix + sessionID)
}

// Save writes or overwrites the transcript for its session.
func (a *Archive) Save(t models.Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(transcriptKey(t.SessionInfo.SessionID), data)
	})
	if err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

// Get loads one session's transcript.
func (a *Archive) Get(sessionID string) (models.Transcript, error) {
	var t models.Transcript

	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(transcriptKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTranscriptNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if err != nil {
		if errors.Is(err, ErrTranscriptNotFound) {
			return models.Transcript{}, err
		}
		return models.Transcript{}, fmt.Errorf("loading transcript: %w", err)
	}
	return t, nil
}

// List returns the session IDs of all archived transcripts.
func (a *Archive) List() ([]string, error) {
	var ids []string

	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(transcriptPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, transcriptPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing transcripts: %w", err)
	}
	return ids, nil
}

// Delete removes one session's transcript. Deleting a missing
// transcript is not an error.
func (a *Archive) Delete(sessionID string) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(transcriptKey(sessionID))
	})
	if err != nil {
		return fmt.Errorf("deleting transcript: %w", err)
	}
	return nil
}
