package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-go-golems/ollachat/pkg/conversation"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrStoreClosed          = errors.New("history store closed")
	ErrUnknownBackend       = errors.New("unknown history backend")
	ErrInvalidConversation  = errors.New("invalid conversation")
)

// Store persists the list of saved conversations, newest first.
//
// Every returned record is a copy; mutating it does not affect the store.
type Store interface {
	List(ctx context.Context) ([]*conversation.Conversation, error)
	Get(ctx context.Context, id string) (*conversation.Conversation, bool, error)
	// Insert adds a record at the front of the list.
	Insert(ctx context.Context, c *conversation.Conversation) error
	// ReplaceMessages overwrites the messages of an existing record.
	ReplaceMessages(ctx context.Context, id string, messages conversation.Messages) error
	// Delete removes a record and returns it.
	Delete(ctx context.Context, id string) (*conversation.Conversation, error)
	Close() error
}

type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

type Config struct {
	Backend Backend
	// Path is the JSON history file.
	Path string
	// DBPath is the SQLite database file.
	DBPath string
}

// Open creates the store selected by cfg.Backend.
func Open(cfg Config) (Store, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case "", BackendJSON:
		return NewJSONFileStore(cfg.Path)
	case BackendSQLite:
		dsn, err := SQLiteDSNForFile(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(dsn)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func validate(c *conversation.Conversation) error {
	if c == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidConversation)
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidConversation)
	}
	return nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
}
