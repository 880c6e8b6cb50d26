// Package transcript persists conversations to a local bbolt file so a
// session can be listed, shown and resumed later.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/deras16/ChatDb-vertexai/chat"
)

var sessionsBucket = []byte("sessions")

// ErrNotFound is returned by Load for an unknown session id.
var ErrNotFound = errors.New("transcript not found")

// Conversation is one saved session.
type Conversation struct {
	ID      string      `json:"id"`
	Created time.Time   `json:"created"`
	Updated time.Time   `json:"updated"`
	Turns   []chat.Turn `json:"turns"`
}

// Summary describes a conversation without its turns.
type Summary struct {
	ID        string
	Updated   time.Time
	Questions int
	Title     string // first question
}

// Store is a bbolt-backed transcript store. The file is opened for each
// call, so several chatdb processes can share it.
type Store struct {
	path string
	now  func() time.Time
}

var _ chat.Recorder = (*Store)(nil)

// Open prepares the transcript file at path, creating it if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	s := &Store{path: path, now: time.Now}
	err := s.update(func(tx *bolt.Tx) error { return nil })
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open transcripts %s: %w", s.path, err)
	}
	return db, nil
}

func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(sessionsBucket); err != nil {
			return err
		}
		return fn(tx)
	})
}

// view passes fn the sessions bucket, nil when it does not exist yet.
func (s *Store) view(fn func(b *bolt.Bucket) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		return fn(tx.Bucket(sessionsBucket))
	})
}

// Record replaces the stored turns of a session, keeping its creation time.
func (s *Store) Record(ctx context.Context, id string, turns []chat.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("session id is required")
	}
	now := s.now().UTC()
	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		conv := Conversation{ID: id, Created: now}
		if v := b.Get([]byte(id)); v != nil {
			var prev Conversation
			if err := json.Unmarshal(v, &prev); err == nil && !prev.Created.IsZero() {
				conv.Created = prev.Created
			}
		}
		conv.Updated = now
		conv.Turns = turns

		enc, err := json.Marshal(conv)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), enc)
	})
}

// Load returns a saved conversation.
func (s *Store) Load(id string) (*Conversation, error) {
	var conv *Conversation
	err := s.view(func(b *bolt.Bucket) error {
		var v []byte
		if b != nil {
			v = b.Get([]byte(id))
		}
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		conv = &Conversation{}
		return json.Unmarshal(v, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns every conversation, most recently updated first.
// Malformed entries are skipped.
func (s *Store) List() ([]Summary, error) {
	var out []Summary
	err := s.view(func(b *bolt.Bucket) error {
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var conv Conversation
			if err := json.Unmarshal(v, &conv); err != nil {
				return nil
			}
			out = append(out, summarize(conv))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Updated.After(out[j].Updated)
	})
	return out, nil
}

// Delete removes a conversation. Unknown ids are not an error.
func (s *Store) Delete(id string) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

func summarize(conv Conversation) Summary {
	sum := Summary{ID: conv.ID, Updated: conv.Updated}
	for _, t := range conv.Turns {
		if t.Role != chat.RoleUser {
			continue
		}
		if sum.Questions == 0 {
			sum.Title = t.Content
		}
		sum.Questions++
	}
	return sum
}
