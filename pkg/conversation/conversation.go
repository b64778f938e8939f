// Package conversation holds the chat record types persisted in the history
// store: a Conversation is an id, a title, a creation timestamp and the ordered
// list of messages exchanged with the model.
package conversation

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TitleMaxLength is the number of characters of the first user message kept in
// a generated title.
const TitleMaxLength = 60

type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  Messages  `json:"messages" yaml:"messages"`
	CreatedAt Timestamp `json:"created_at" yaml:"created_at"`
}

type ConversationOption func(*conversationOptions)

type conversationOptions struct {
	id    string
	title string
	now   func() time.Time
}

func WithID(id string) ConversationOption {
	return func(o *conversationOptions) {
		o.id = id
	}
}

func WithTitle(title string) ConversationOption {
	return func(o *conversationOptions) {
		o.title = title
	}
}

func WithClock(now func() time.Time) ConversationOption {
	return func(o *conversationOptions) {
		o.now = now
	}
}

// NewConversation builds a record from messages. The messages are copied. When
// no title is given it is derived from the first user message.
func NewConversation(messages Messages, options ...ConversationOption) *Conversation {
	o := &conversationOptions{now: time.Now}
	for _, option := range options {
		option(o)
	}

	createdAt := o.now().UTC()
	id := o.id
	if id == "" {
		id = uuid.NewString()
	}
	title := o.title
	if title == "" {
		title = TitleFor(messages, createdAt)
	}

	msgs := messages.Clone()
	if msgs == nil {
		msgs = Messages{}
	}

	return &Conversation{
		ID:        id,
		Title:     title,
		Messages:  msgs,
		CreatedAt: NewTimestamp(createdAt),
	}
}

// TitleFor derives a title from the first user message, or falls back to a
// timestamped placeholder.
func TitleFor(messages Messages, now time.Time) string {
	first, ok := messages.FirstUserMessage()
	if !ok {
		return fmt.Sprintf("Conversation %s", now.UTC().Format(isoLayout))
	}
	return truncate(first, TitleMaxLength) + "..."
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	ret := *c
	ret.Messages = c.Messages.Clone()
	return &ret
}

// Label is the selector entry shown for the record at position index (0-based)
// in the history list.
func (c *Conversation) Label(index int) string {
	return fmt.Sprintf("%d: %s (%s)", index+1, c.Title, c.CreatedAt.Display())
}
