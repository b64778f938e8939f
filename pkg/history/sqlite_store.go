package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const sqliteHistorySchemaV1 = `
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    payload_json TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS conversations_position ON conversations(position);
`

// SQLiteStore keeps one JSON payload per conversation row. Rows are ordered by
// position ascending; new records get a position below the current minimum so
// they sort first.
type SQLiteStore struct {
	mu     sync.Mutex
	dsn    string
	db     *sql.DB
	store  *MemoryStore
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, errors.New("sqlite history store: empty dsn")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite history store: open")
	}

	s := &SQLiteStore{
		dsn:   dsn,
		db:    db,
		store: NewMemoryStore(),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.loadFromDB(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// SQLiteDSNForFile builds a DSN for a database file, creating its directory.
func SQLiteDSNForFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite history store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "sqlite history store: create directory")
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*conversation.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, false, err
	}
	return s.store.Get(ctx, id)
}

func (s *SQLiteStore) Insert(ctx context.Context, c *conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := validate(c); err != nil {
		return err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "sqlite history store: encode")
	}

	var minPosition sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(position) FROM conversations`).Scan(&minPosition); err != nil {
		return errors.Wrap(err, "sqlite history store: read position")
	}
	position := int64(0)
	if minPosition.Valid {
		position = minPosition.Int64 - 1
	}

	if err := s.store.insertLocked(c); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations(id, position, payload_json, created_at_ms) VALUES (?, ?, ?, ?)`,
		c.ID, position, string(payload), c.CreatedAt.Time.UnixMilli(),
	)
	if err != nil {
		_, _ = s.store.deleteLocked(c.ID)
		return errors.Wrap(err, "sqlite history store: insert")
	}
	return nil
}

func (s *SQLiteStore) ReplaceMessages(ctx context.Context, id string, messages conversation.Messages) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}
	previous := s.store.conversations
	if err := s.store.replaceMessagesLocked(id, messages); err != nil {
		return err
	}
	updated, _, _ := s.store.Get(ctx, id)
	payload, err := json.Marshal(updated)
	if err != nil {
		s.store.conversations = previous
		return errors.Wrap(err, "sqlite history store: encode")
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE conversations SET payload_json = ? WHERE id = ?`, string(payload), id); err != nil {
		s.store.conversations = previous
		return errors.Wrap(err, "sqlite history store: update")
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	previous := s.store.conversations
	removed, err := s.store.deleteLocked(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		s.store.conversations = previous
		return nil, errors.Wrap(err, "sqlite history store: delete")
	}
	return removed, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(sqliteHistorySchemaV1); err != nil {
		return errors.Wrap(err, "sqlite history store: migrate")
	}
	return nil
}

func (s *SQLiteStore) loadFromDB() error {
	rows, err := s.db.Query(`SELECT id, payload_json FROM conversations ORDER BY position ASC`)
	if err != nil {
		return errors.Wrap(err, "sqlite history store: load")
	}
	defer func() {
		_ = rows.Close()
	}()

	conversations := []*conversation.Conversation{}
	for rows.Next() {
		var id string
		var payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return err
		}
		c := &conversation.Conversation{}
		if err := json.Unmarshal([]byte(payload), c); err != nil {
			return errors.Wrapf(err, "sqlite history store: decode %s", id)
		}
		if c.ID != id {
			return fmt.Errorf("sqlite history store: id mismatch payload=%q row=%q", c.ID, id)
		}
		if c.Messages == nil {
			c.Messages = conversation.Messages{}
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.store.conversations = conversations
	return nil
}

func (s *SQLiteStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}
