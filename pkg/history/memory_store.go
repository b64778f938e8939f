package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-go-golems/ollachat/pkg/conversation"
)

// MemoryStore keeps the history in process memory. It is also the in-memory
// model the file-backed stores load into and persist from.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations []*conversation.Conversation
	closed        bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(initial ...*conversation.Conversation) *MemoryStore {
	s := &MemoryStore{}
	s.conversations = cloneAll(initial)
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return cloneAll(s.conversations), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*conversation.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, false, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, false, nil
	}
	return s.conversations[idx].Clone(), true, nil
}

func (s *MemoryStore) Insert(ctx context.Context, c *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.insertLocked(c)
}

func (s *MemoryStore) ReplaceMessages(ctx context.Context, id string, messages conversation.Messages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	return s.replaceMessagesLocked(id, messages)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.deleteLocked(id)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) insertLocked(c *conversation.Conversation) error {
	if err := validate(c); err != nil {
		return err
	}
	if s.indexOf(c.ID) >= 0 {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidConversation, c.ID)
	}
	s.conversations = append([]*conversation.Conversation{c.Clone()}, s.conversations...)
	return nil
}

func (s *MemoryStore) replaceMessagesLocked(id string, messages conversation.Messages) error {
	idx := s.indexOf(id)
	if idx < 0 {
		return notFound(id)
	}
	msgs := messages.Clone()
	if msgs == nil {
		msgs = conversation.Messages{}
	}
	// copy on write, so a caller holding the previous slice keeps its view
	updated := make([]*conversation.Conversation, len(s.conversations))
	copy(updated, s.conversations)
	record := *updated[idx]
	record.Messages = msgs
	updated[idx] = &record
	s.conversations = updated
	return nil
}

func (s *MemoryStore) deleteLocked(id string) (*conversation.Conversation, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, notFound(id)
	}
	removed := s.conversations[idx]
	s.conversations = append(s.conversations[:idx:idx], s.conversations[idx+1:]...)
	return removed, nil
}

func (s *MemoryStore) indexOf(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func cloneAll(in []*conversation.Conversation) []*conversation.Conversation {
	ret := make([]*conversation.Conversation, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		ret = append(ret, c.Clone())
	}
	return ret
}
