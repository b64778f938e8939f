package conversation

import (
	"fmt"
	"strings"

	"github.com/huandu/go-clone"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleAssistant, RoleUser:
		return true
	default:
		return false
	}
}

// Message is a single chat turn as exchanged with the model backend and
// stored in the history file.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

func NewChatMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

func (m Message) String() string {
	return fmt.Sprintf("[%s]: %s", m.Role, strings.TrimRight(m.Content, "\n"))
}

// Messages is an ordered list of chat turns.
type Messages []Message

// Clone returns a deep copy. A nil list stays nil.
func (ms Messages) Clone() Messages {
	if ms == nil {
		return nil
	}
	return clone.Clone(ms).(Messages)
}

// Concat returns a new list holding ms followed by others.
func (ms Messages) Concat(others Messages) Messages {
	ret := make(Messages, 0, len(ms)+len(others))
	ret = append(ret, ms...)
	ret = append(ret, others...)
	return ret
}

// FirstUserMessage returns the content of the first user turn.
func (ms Messages) FirstUserMessage() (string, bool) {
	for _, m := range ms {
		if m.Role == RoleUser {
			return m.Content, true
		}
	}
	return "", false
}

// LastUserMessage returns the content of the most recent user turn.
func (ms Messages) LastUserMessage() (string, bool) {
	for i := len(ms) - 1; i >= 0; i-- {
		if ms[i].Role == RoleUser {
			return ms[i].Content, true
		}
	}
	return "", false
}
