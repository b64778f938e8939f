package cmds

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/ollachat/pkg/conversation"
	"github.com/go-go-golems/ollachat/pkg/history"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHistory(t *testing.T, initial ...*conversation.Conversation) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "history.json")
	viper.Set("history-backend", "json")
	viper.Set("history-file", path)
	viper.Set("engine", "echo")

	store, err := history.NewJSONFileStore(path)
	require.NoError(t, err)
	for i := len(initial) - 1; i >= 0; i-- {
		require.NoError(t, store.Insert(context.Background(), initial[i]))
	}
	require.NoError(t, store.Close())
	return path
}

func execute(t *testing.T, cmd *cobra.Command, in string, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func listHistory(t *testing.T, path string) []*conversation.Conversation {
	t.Helper()
	store, err := history.NewJSONFileStore(path)
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()
	conversations, err := store.List(context.Background())
	require.NoError(t, err)
	return conversations
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)
}

func record(id, text string) *conversation.Conversation {
	return conversation.NewConversation(conversation.Messages{
		conversation.NewChatMessage(conversation.RoleUser, text),
		conversation.NewChatMessage(conversation.RoleAssistant, "reply to "+text),
	}, conversation.WithID(id), conversation.WithClock(fixedClock))
}

func TestChatCommand_SavesOnExit(t *testing.T) {
	path := setupHistory(t)

	out := execute(t, NewChatCommand(), "hello\n\nexit\n", "--save")

	assert.Contains(t, out, "🚀 Chatbot is running using model: llama3")
	assert.Contains(t, out, "llama3: hello")
	assert.Contains(t, out, "Chat ended.")
	assert.Contains(t, out, "Saved as hello...")

	conversations := listHistory(t, path)
	require.Len(t, conversations, 1)
	assert.Equal(t, "hello...", conversations[0].Title)
	require.Len(t, conversations[0].Messages, 2)
	assert.Equal(t, "hello", conversations[0].Messages[1].Content)
}

func TestChatCommand_WithoutSaveLeavesHistoryAlone(t *testing.T) {
	path := setupHistory(t)

	out := execute(t, NewChatCommand(), "hello\n")

	assert.Contains(t, out, "llama3: hello")
	assert.Empty(t, listHistory(t, path))
}

func TestChatCommand_ResumeUpdatesRecord(t *testing.T) {
	path := setupHistory(t, record("c1", "first"))

	out := execute(t, NewChatCommand(), "second\nexit\n", "--resume", "c1")

	assert.Contains(t, out, "user: first")
	assert.Contains(t, out, "llama3: second")

	conversations := listHistory(t, path)
	require.Len(t, conversations, 1)
	assert.Len(t, conversations[0].Messages, 4)
}

func TestChatCommand_UnknownContext(t *testing.T) {
	setupHistory(t)

	cmd := NewChatCommand()
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--context", "missing"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrConversationNotFound)
}

func TestHistoryList(t *testing.T) {
	setupHistory(t, record("c1", "newest"), record("c2", "older"))

	out := execute(t, NewHistoryCommand(), "", "list")

	assert.Contains(t, out, "1: newest... (2024-05-01 09:15)  [c1]")
	assert.Contains(t, out, "2: older... (2024-05-01 09:15)  [c2]")
	assert.Less(t, strings.Index(out, "newest"), strings.Index(out, "older"))
}

func TestHistoryList_Empty(t *testing.T) {
	setupHistory(t)

	out := execute(t, NewHistoryCommand(), "", "list")
	assert.Contains(t, out, "No saved conversations.")
}

func TestHistoryShow(t *testing.T) {
	setupHistory(t, record("c1", "question"))

	out := execute(t, NewHistoryCommand(), "", "show", "c1")
	assert.Contains(t, out, "question...")
	assert.Contains(t, out, "assistant: reply to question")
}

func TestHistoryDelete_AskForConfirmation(t *testing.T) {
	path := setupHistory(t, record("c1", "keep me"))

	out := execute(t, NewHistoryCommand(), "n\n", "delete", "c1")
	assert.Contains(t, out, "Aborted.")
	assert.Len(t, listHistory(t, path), 1)

	out = execute(t, NewHistoryCommand(), "y\n", "delete", "c1")
	assert.Contains(t, out, "Deleted keep me...")
	assert.Empty(t, listHistory(t, path))
}

func TestHistoryDelete_Yes(t *testing.T) {
	path := setupHistory(t, record("c1", "a"), record("c2", "b"))

	execute(t, NewHistoryCommand(), "", "delete", "--yes", "c2")

	conversations := listHistory(t, path)
	require.Len(t, conversations, 1)
	assert.Equal(t, "c1", conversations[0].ID)
}

func TestHistoryExport(t *testing.T) {
	setupHistory(t, record("c1", "exported"))

	out := execute(t, NewHistoryCommand(), "", "export", "--format", "yaml")
	assert.Contains(t, out, "id: c1")
	assert.Contains(t, out, "title: exported...")

	out = execute(t, NewHistoryCommand(), "", "export")
	decoded, err := history.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "c1", decoded[0].ID)
}

func TestHistoryExport_ToFile(t *testing.T) {
	setupHistory(t, record("c1", "to disk"))
	output := filepath.Join(t.TempDir(), "export.json")

	out := execute(t, NewHistoryCommand(), "", "export", "-o", output)
	assert.Empty(t, out)

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	decoded, err := history.Decode(b)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "c1", decoded[0].ID)
}

func TestExportToFile_UnknownFormat(t *testing.T) {
	output := filepath.Join(t.TempDir(), "export.txt")
	err := exportToFile(output, nil, history.ExportFormat("csv"))
	require.Error(t, err)
}

func TestExportToFile_MissingDirectory(t *testing.T) {
	output := filepath.Join(t.TempDir(), "missing", "export.json")
	err := exportToFile(output, nil, history.ExportJSON)
	require.Error(t, err)
}

func TestModelsCommand_Echo(t *testing.T) {
	setupHistory(t)

	out := execute(t, NewModelsCommand(), "")
	assert.Equal(t, "echo\n", out)
}
