package cmds

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/inference/session"
	"github.com/go-go-golems/ollachat/pkg/web"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	var (
		address     string
		contextFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat web UI and JSON API",
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

			s := session.NewSession(e, store)
			if contextFile != "" {
				messages, err := conversation.LoadMessagesFromFile(contextFile)
				if err != nil {
					return err
				}
				s.SetContextMessages(messages)
			}

			server, err := web.NewServer(s, store, stepSettings.Chat.Engine,
				web.WithMetadata(stepSettings.GetMetadata()))
			if err != nil {
				return err
			}
			return server.Run(ctx, address)
		},
	}

	cmd.Flags().StringVar(&address, "address", ":8501", "Address to listen on")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "Load hidden context messages from a JSON or YAML file")

	return cmd
}
