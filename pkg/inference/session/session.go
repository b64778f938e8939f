package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/go-go-golems/ollachat/pkg/inference/engine"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNil           = errors.New("session is nil")
	ErrSessionNoEngine      = errors.New("session has no engine")
	ErrSessionNoStore       = errors.New("session has no history store")
	ErrSessionAlreadyActive = errors.New("session already has an active inference")
	ErrEmptyInput           = errors.New("empty input")
	ErrNothingToSave        = errors.New("chat has no messages to save")
)

// Session is the state of one chat: the displayed messages, an optional list
// of hidden context messages that is prepended to every model call, and the id
// of the saved conversation being edited (empty for an unsaved chat).
//
// Only one model call runs at a time; operations that replace the chat fail
// with ErrSessionAlreadyActive while it runs.
type Session struct {
	SessionID string
	Engine    engine.Engine
	Store     history.Store

	// DropFailedExchanges removes the user message when the model call fails
	// instead of recording an "Error: ..." reply.
	DropFailedExchanges bool

	mu              sync.Mutex
	messages        conversation.Messages
	contextMessages conversation.Messages
	currentID       string
	currentTitle    string
	selectedID      string
	running         bool
	clock           func() time.Time
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.clock = now
	}
}

func WithDropFailedExchanges(drop bool) Option {
	return func(s *Session) {
		s.DropFailedExchanges = drop
	}
}

// NewSession constructs a Session with a generated SessionID.
func NewSession(e engine.Engine, store history.Store, options ...Option) *Session {
	s := &Session{
		SessionID:       uuid.NewString(),
		Engine:          e,
		Store:           store,
		messages:        conversation.Messages{},
		contextMessages: conversation.Messages{},
		clock:           time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Reply is the outcome of Send.
type Reply struct {
	Content string
	// ModelError is set when the model call failed. Content then holds the
	// error notice that was recorded, if any.
	ModelError error
}

// Send appends the user's text, asks the model for a reply using the context
// messages followed by the chat messages, and appends the reply. When the
// chat is a saved conversation, the stored record is updated.
//
// A failed model call is not returned as error: it is reported in
// Reply.ModelError. The returned error covers invalid input and failures to
// persist.
func (s *Session) Send(ctx context.Context, text string) (*Reply, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	if s.Engine == nil {
		return nil, ErrSessionNoEngine
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSessionAlreadyActive
	}
	s.running = true
	s.messages = append(s.messages, conversation.NewChatMessage(conversation.RoleUser, text))
	payload := s.contextMessages.Concat(s.messages)
	s.mu.Unlock()

	inferenceID := uuid.NewString()
	ctx = WithSessionMeta(ctx, s.SessionID, inferenceID)
	content, modelErr := s.Engine.Chat(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false

	reply := &Reply{Content: content}
	if modelErr != nil {
		log.Warn().Err(modelErr).
			Str("session_id", s.SessionID).
			Str("inference_id", inferenceID).
			Msg("model call failed")
		reply.ModelError = modelErr
		if s.DropFailedExchanges {
			s.messages = s.messages[:len(s.messages)-1]
			reply.Content = ""
			return reply, nil
		}
		reply.Content = "Error: " + modelErr.Error()
	}
	s.messages = append(s.messages, conversation.NewChatMessage(conversation.RoleAssistant, reply.Content))

	if s.currentID != "" && s.Store != nil {
		if err := s.Store.ReplaceMessages(ctx, s.currentID, s.messages.Clone()); err != nil {
			return reply, errors.Wrapf(err, "could not save conversation %s", s.currentID)
		}
	}
	return reply, nil
}

// NewChat starts over. An unsaved chat with messages is first stored as a new
// conversation, which is returned.
func (s *Session) NewChat(ctx context.Context) (*conversation.Conversation, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrSessionAlreadyActive
	}

	var saved *conversation.Conversation
	if len(s.messages) > 0 && s.currentID == "" {
		c, err := s.insertLocked(ctx)
		if err != nil {
			return nil, err
		}
		saved = c
	}
	s.resetLocked()
	s.contextMessages = conversation.Messages{}
	return saved, nil
}

// Save stores an unsaved chat as a new conversation and makes it current, so
// later replies update it. For a chat that is already saved it returns the
// stored record.
func (s *Session) Save(ctx context.Context) (*conversation.Conversation, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrSessionAlreadyActive
	}
	if s.Store == nil {
		return nil, ErrSessionNoStore
	}

	if s.currentID != "" {
		c, ok, err := s.Store.Get(ctx, s.currentID)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
		log.Warn().Str("id", s.currentID).Msg("current conversation vanished from history, saving it again")
	}
	if len(s.messages) == 0 {
		return nil, ErrNothingToSave
	}

	c, err := s.insertLocked(ctx)
	if err != nil {
		return nil, err
	}
	s.currentID = c.ID
	s.currentTitle = c.Title
	s.selectedID = c.ID
	return c, nil
}

// Select loads a copy of a saved conversation and makes it current. The
// context messages are kept. An empty id clears the chat without saving it.
func (s *Session) Select(ctx context.Context, id string) (*conversation.Conversation, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrSessionAlreadyActive
	}

	if id == "" {
		s.resetLocked()
		s.contextMessages = conversation.Messages{}
		return nil, nil
	}

	c, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	s.messages = c.Messages.Clone()
	s.currentID = c.ID
	s.currentTitle = c.Title
	s.selectedID = c.ID
	return c, nil
}

// UseAsContext makes a saved conversation the hidden context of a fresh,
// unsaved chat.
func (s *Session) UseAsContext(ctx context.Context, id string) (*conversation.Conversation, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrSessionAlreadyActive
	}

	c, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resetLocked()
	s.contextMessages = c.Messages.Clone()
	s.selectedID = c.ID
	return c, nil
}

// Delete removes a saved conversation. If it was the current chat, the chat
// is cleared.
func (s *Session) Delete(ctx context.Context, id string) (*conversation.Conversation, error) {
	if s == nil {
		return nil, ErrSessionNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, ErrSessionAlreadyActive
	}
	if s.Store == nil {
		return nil, ErrSessionNoStore
	}

	c, err := s.Store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.currentID == id {
		s.messages = conversation.Messages{}
		s.currentID = ""
		s.currentTitle = ""
	}
	s.selectedID = ""
	return c, nil
}

// SetContextMessages replaces the hidden context, e.g. with messages loaded
// from a file.
func (s *Session) SetContextMessages(messages conversation.Messages) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextMessages = conversation.Messages{}.Concat(messages.Clone())
}

// IsRunning reports whether a model call is in progress.
func (s *Session) IsRunning() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	SessionID       string                `json:"session_id"`
	Title           string                `json:"title"`
	Messages        conversation.Messages `json:"messages"`
	ContextMessages conversation.Messages `json:"context_messages"`
	CurrentID       string                `json:"current_id,omitempty"`
	SelectedID      string                `json:"selected_id,omitempty"`
	Running         bool                  `json:"running"`
}

func (s Snapshot) Saved() bool {
	return s.CurrentID != ""
}

func (s *Session) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{Messages: conversation.Messages{}, ContextMessages: conversation.Messages{}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:       s.SessionID,
		Title:           s.currentTitle,
		Messages:        conversation.Messages{}.Concat(s.messages),
		ContextMessages: conversation.Messages{}.Concat(s.contextMessages),
		CurrentID:       s.currentID,
		SelectedID:      s.selectedID,
		Running:         s.running,
	}
}

func (s *Session) insertLocked(ctx context.Context) (*conversation.Conversation, error) {
	if s.Store == nil {
		return nil, ErrSessionNoStore
	}
	c := conversation.NewConversation(s.messages.Clone(), conversation.WithClock(s.clock))
	if err := s.Store.Insert(ctx, c); err != nil {
		return nil, errors.Wrap(err, "could not save chat")
	}
	log.Debug().Str("id", c.ID).Str("title", c.Title).Msg("saved chat to history")
	return c, nil
}

func (s *Session) getLocked(ctx context.Context, id string) (*conversation.Conversation, error) {
	if s.Store == nil {
		return nil, ErrSessionNoStore
	}
	c, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(history.ErrConversationNotFound, id)
	}
	return c, nil
}

// resetLocked clears the chat but not the context.
func (s *Session) resetLocked() {
	s.messages = conversation.Messages{}
	s.currentID = ""
	s.currentTitle = ""
	s.selectedID = ""
}
