package cmds

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-go-golems/ollachat/pkg/cmds"
	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved conversations",
	}
	cmd.AddCommand(
		newHistoryListCommand(),
		newHistoryShowCommand(),
		newHistoryDeleteCommand(),
		newHistoryExportCommand(),
	)
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			conversations, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(conversations) == 0 {
				fmt.Fprintln(out, "No saved conversations.")
				return nil
			}
			for i, c := range conversations {
				fmt.Fprintf(out, "%s  [%s]\n", c.Label(i), c.ID)
			}
			return nil
		},
	}
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the messages of a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			c, ok, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrap(history.ErrConversationNotFound, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\nCreated: %s\n\n", c.Title, c.CreatedAt.Display())
			for _, m := range c.Messages {
				fmt.Fprintf(out, "%s: %s\n\n", m.Role, m.Content)
			}
			return nil
		},
	}
}

func newHistoryDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			c, ok, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrap(history.ErrConversationNotFound, args[0])
			}

			if !yes {
				confirmed, err := cmds.AskForConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete %q?", c.Title))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if _, err := store.Delete(cmd.Context(), c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", c.Title)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newHistoryExportCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all saved conversations as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			conversations, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			exportFormat := history.ExportFormat(strings.ToLower(format))
			if output == "" {
				return history.Export(cmd.OutOrStdout(), conversations, exportFormat)
			}
			return exportToFile(output, conversations, exportFormat)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// exportToFile reports a failed close, which is where a short write to disk
// surfaces.
func exportToFile(path string, conversations []*conversation.Conversation, format history.ExportFormat) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "could not write %s", path)
		}
	}()
	return history.Export(f, conversations, format)
}
