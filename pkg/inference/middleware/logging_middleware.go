package middleware

import (
	"context"
	"time"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/rs/zerolog"
)

// NewLoggingMiddleware logs the size of each request and the outcome of the
// model call.
func NewLoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, messages conversation.Messages) (string, error) {
			var numUser, numAssistant, numSystem int
			for _, m := range messages {
				switch m.Role {
				case conversation.RoleUser:
					numUser++
				case conversation.RoleAssistant:
					numAssistant++
				case conversation.RoleSystem:
					numSystem++
				}
			}
			lctx := logger.With()
			if sid := session.SessionIDFromContext(ctx); sid != "" {
				lctx = lctx.Str("session_id", sid)
			}
			if iid := session.InferenceIDFromContext(ctx); iid != "" {
				lctx = lctx.Str("inference_id", iid)
			}
			lg := lctx.
				Int("message_count", len(messages)).
				Int("user_messages", numUser).
				Int("assistant_messages", numAssistant).
				Int("system_messages", numSystem).
				Logger()

			lg.Debug().Msg("chat: starting inference")
			start := time.Now()
			reply, err := next(ctx, messages)
			if err != nil {
				lg.Error().Err(err).Dur("duration", time.Since(start)).Msg("chat: inference failed")
				return reply, err
			}
			lg.Info().
				Dur("duration", time.Since(start)).
				Int("reply_length", len(reply)).
				Msg("chat: inference completed")
			return reply, nil
		}
	}
}
