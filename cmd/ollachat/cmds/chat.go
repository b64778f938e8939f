package cmds

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/ollachat/pkg/cmds"
	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewChatCommand() *cobra.Command {
	var (
		save        bool
		resume      string
		contextID   string
		contextFile string
		render      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model on the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, stepSettings, err := createEngine()
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			s := session.NewSession(e, store, session.WithDropFailedExchanges(true))

			if contextID != "" {
				if _, err := s.UseAsContext(ctx, contextID); err != nil {
					return err
				}
			}
			if contextFile != "" {
				messages, err := conversation.LoadMessagesFromFile(contextFile)
				if err != nil {
					return err
				}
				s.SetContextMessages(s.Snapshot().ContextMessages.Concat(messages))
			}
			if resume != "" {
				c, err := s.Select(ctx, resume)
				if err != nil {
					return err
				}
				for _, m := range c.Messages {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Role, m.Content)
				}
			}

			out := cmd.OutOrStdout()
			loop := &cmds.ChatLoop{
				Session: s,
				Model:   stepSettings.Chat.Engine,
				In:      cmd.InOrStdin(),
				Out:     out,
				Err:     cmd.ErrOrStderr(),
				Styled:  cmds.IsTerminal(out),
			}
			if render && loop.Styled {
				r, err := cmds.NewGlamourRenderer(100)
				if err != nil {
					return err
				}
				loop.Renderer = r
			}

			err = loop.Run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if err != nil {
				return err
			}

			if save {
				c, err := s.Save(context.Background())
				switch {
				case errors.Is(err, session.ErrNothingToSave):
					log.Debug().Msg("nothing to save")
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "Saved as %s (%s)\n", c.Title, c.ID)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the chat to the history on exit")
	cmd.Flags().StringVar(&resume, "resume", "", "Continue the saved conversation with this id")
	cmd.Flags().StringVar(&contextID, "context", "", "Use the saved conversation with this id as hidden context")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "Load hidden context messages from a JSON or YAML file")
	cmd.Flags().BoolVar(&render, "render", true, "Render replies as markdown on a terminal")

	return cmd
}
