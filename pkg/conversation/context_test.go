package conversation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMessagesFromYAML(t *testing.T) {
	path := writeFile(t, "ctx.yaml", `
- role: system
  content: You answer in French.
- role: user
  content: Bonjour
`)
	messages, err := LoadMessagesFromFile(path)
	require.NoError(t, err)
	require.Equal(t, Messages{
		NewChatMessage(RoleSystem, "You answer in French."),
		NewChatMessage(RoleUser, "Bonjour"),
	}, messages)
}

func TestLoadMessagesFromJSONList(t *testing.T) {
	path := writeFile(t, "ctx.json", `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`)
	messages, err := LoadMessagesFromFile(path)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, RoleAssistant, messages[1].Role)
}

func TestLoadMessagesFromJSONRecord(t *testing.T) {
	path := writeFile(t, "conv.JSON", `{"id":"x","title":"t","messages":[{"role":"user","content":"hi"}],"created_at":"2024-05-01T09:15:00"}`)
	messages, err := LoadMessagesFromFile(path)
	require.NoError(t, err)
	require.Equal(t, Messages{NewChatMessage(RoleUser, "hi")}, messages)
}

func TestLoadMessagesRejectsBadInput(t *testing.T) {
	_, err := LoadMessagesFromFile(writeFile(t, "ctx.txt", "hi"))
	require.Error(t, err)

	_, err = LoadMessagesFromFile(writeFile(t, "ctx.yaml", "- role: robot\n  content: beep\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid role")

	_, err = LoadMessagesFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadMessagesEmptyYAML(t *testing.T) {
	messages, err := LoadMessagesFromFile(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)
}
