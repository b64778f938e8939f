package cmds

import (
	"github.com/spf13/pflag"
)

// AddModelFlags registers the flags read by cmds.LoadStepSettings.
func AddModelFlags(fs *pflag.FlagSet) {
	fs.String("engine", "ollama", "Chat backend (ollama, openai, echo)")
	fs.String("model", "llama3", "Model name")
	fs.String("ollama-host", "", "Ollama server URL (default $OLLAMA_HOST or http://127.0.0.1:11434)")
	fs.String("openai-base-url", "http://127.0.0.1:11434/v1", "Base URL of the OpenAI compatible server")
	fs.String("openai-api-key", "", "API key for the OpenAI compatible server")
	fs.Int("openai-max-tokens", 0, "Maximum tokens per reply (openai engine)")
	fs.Float64("temperature", 0, "Sampling temperature")
	fs.Float64("top-p", 0, "Nucleus sampling probability")
	fs.Int("num-ctx", 0, "Context window size (ollama engine)")
	fs.Int("seed", 0, "Random seed (ollama engine)")
	fs.Duration("request-timeout", 0, "Timeout of a single model call (default 5m)")
	fs.String("system-prompt", "", "System prompt sent ahead of every conversation")
	fs.String("settings-file", "", "YAML model settings file")
}

// AddHistoryFlags registers the flags read by cmds.HistoryConfigFromViper.
func AddHistoryFlags(fs *pflag.FlagSet) {
	fs.String("history-backend", "json", "History backend (json, sqlite, memory)")
	fs.String("history-file", "", "JSON history file (default ~/.ollachat/history.json)")
	fs.String("history-db", "", "SQLite history database (default ~/.ollachat/history.db)")
}
