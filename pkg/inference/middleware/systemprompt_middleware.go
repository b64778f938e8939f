package middleware

import (
	"context"
	"strings"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// NewSystemPromptMiddleware ensures a fixed system prompt is sent first. If the
// messages already start with a system message, the prompt is appended to it
// (separated by a blank line) unless it already contains it. The caller's
// slice is never modified.
func NewSystemPromptMiddleware(prompt string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, messages conversation.Messages) (string, error) {
			if prompt == "" {
				return next(ctx, messages)
			}

			out := messages.Clone()
			if len(out) > 0 && out[0].Role == conversation.RoleSystem {
				switch {
				case strings.Contains(out[0].Content, prompt):
					return next(ctx, out)
				case out[0].Content == "":
					out[0].Content = prompt
				default:
					out[0].Content = out[0].Content + "\n\n" + prompt
				}
				log.Debug().Int("message_count", len(out)).Msg("systemprompt: appended to existing system message")
			} else {
				out = conversation.Messages{conversation.NewChatMessage(conversation.RoleSystem, prompt)}.Concat(out)
				log.Debug().Int("message_count", len(out)).Msg("systemprompt: inserted system message")
			}
			return next(ctx, out)
		}
	}
}
