package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// JSONFileStore persists the whole history as a single JSON array.
//
// Every mutation re-serializes the full list to <path>.tmp, fsyncs it and
// renames it over <path>, so readers only ever see a complete file.
type JSONFileStore struct {
	mu     sync.Mutex
	path   string
	store  *MemoryStore
	closed bool
}

var _ Store = (*JSONFileStore)(nil)

func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if path == "" {
		return nil, errors.New("json history store path is required")
	}

	s := &JSONFileStore{
		path:  path,
		store: NewMemoryStore(),
	}
	s.loadFromDisk()
	return s, nil
}

func (s *JSONFileStore) Path() string {
	return s.path
}

func (s *JSONFileStore) List(ctx context.Context) ([]*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

func (s *JSONFileStore) Get(ctx context.Context, id string) (*conversation.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, false, err
	}
	return s.store.Get(ctx, id)
}

func (s *JSONFileStore) Insert(ctx context.Context, c *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.mutateLocked(func() error {
		return s.store.insertLocked(c)
	})
}

func (s *JSONFileStore) ReplaceMessages(ctx context.Context, id string, messages conversation.Messages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.mutateLocked(func() error {
		return s.store.replaceMessagesLocked(id, messages)
	})
}

func (s *JSONFileStore) Delete(ctx context.Context, id string) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	var removed *conversation.Conversation
	err := s.mutateLocked(func() error {
		var err error
		removed, err = s.store.deleteLocked(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *JSONFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// mutateLocked applies f to the in-memory list and persists the result. If
// writing fails the in-memory list is restored.
func (s *JSONFileStore) mutateLocked(f func() error) error {
	previous := s.store.conversations
	if err := f(); err != nil {
		return err
	}
	if err := s.persistLocked(); err != nil {
		s.store.conversations = previous
		return err
	}
	return nil
}

// loadFromDisk never fails: a missing file is an empty history, and so is a
// file that does not decode.
func (s *JSONFileStore) loadFromDisk() {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("could not read history file, starting empty")
		}
		return
	}

	conversations, err := Decode(b)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("could not decode history file, starting empty")
		return
	}
	s.store.conversations = conversations
	log.Debug().Str("path", s.path).Int("conversations", len(conversations)).Msg("loaded history")
}

func (s *JSONFileStore) persistLocked() error {
	b, err := Encode(s.store.conversations)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "could not create history directory")
	}
	return writeFileAtomic(s.path, b, 0o644)
}

func (s *JSONFileStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Decode parses a history document. Null entries are skipped and records
// without an id get a generated one, so they survive the next write.
func Decode(b []byte) ([]*conversation.Conversation, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return []*conversation.Conversation{}, nil
	}
	var conversations []*conversation.Conversation
	if err := json.Unmarshal(b, &conversations); err != nil {
		return nil, errors.Wrap(err, "could not decode history")
	}
	ret := make([]*conversation.Conversation, 0, len(conversations))
	missingIDs := 0
	for _, c := range conversations {
		if c == nil {
			continue
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
			missingIDs++
		}
		if c.Messages == nil {
			c.Messages = conversation.Messages{}
		}
		ret = append(ret, c)
	}
	if missingIDs > 0 {
		log.Warn().Int("conversations", missingIDs).Msg("history records without id were assigned a new id")
	}
	return ret, nil
}

// Encode serializes records as an indented JSON array, leaving non-ASCII and
// HTML characters unescaped.
func Encode(conversations []*conversation.Conversation) ([]byte, error) {
	if conversations == nil {
		conversations = []*conversation.Conversation{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(conversations); err != nil {
		return nil, errors.Wrap(err, "could not encode history")
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, b []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "could not open %s", tmpPath)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "could not write %s", tmpPath)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "could not sync %s", tmpPath)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "could not close %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "could not replace %s", path)
	}
	return nil
}
