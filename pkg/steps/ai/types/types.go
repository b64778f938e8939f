package types

type ApiType string

const (
	ApiTypeOllama ApiType = "ollama"
	// any OpenAI-compatible chat completions endpoint, Ollama's /v1 included
	ApiTypeOpenAI ApiType = "openai"
	// answers with the last user message, no network
	ApiTypeEcho ApiType = "echo"
)

func (a ApiType) IsValid() bool {
	switch a {
	case ApiTypeOllama, ApiTypeOpenAI, ApiTypeEcho:
		return true
	default:
		return false
	}
}

func SupportedApiTypes() []ApiType {
	return []ApiType{ApiTypeOllama, ApiTypeOpenAI, ApiTypeEcho}
}
