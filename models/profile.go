package models

// Family selects the wire dialect spoken by a backend.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyGemini    Family = "gemini"
	FamilyOllama    Family = "ollama"
	FamilyCustom    Family = "custom"
)

// GenerationParams are optional sampling settings. Nil pointers are left out
// of the outbound request so the backend default applies.
type GenerationParams struct {
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
}

// RequestTemplate declares a request shape for backends that none of the
// built-in families describe.
//
// Body and header values may contain the placeholders {{model}},
// {{messages}}, {{max_tokens}}, {{temperature}} and {{api_key}}.
// ResponsePath is a dotted path with single-level array indexing, for example
// "choices[0].delta.content".
type RequestTemplate struct {
	Body         string            `json:"body,omitempty" yaml:"body,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	ResponsePath string            `json:"response_path,omitempty" yaml:"response_path,omitempty"`
	// Framing is "sse" or "ndjson"; empty means the family default.
	Framing string `json:"framing,omitempty" yaml:"framing,omitempty"`
}

// BackendProfile identifies one provider endpoint and how to talk to it.
type BackendProfile struct {
	ID         string           `json:"id" yaml:"id"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Family     Family           `json:"family" yaml:"family"`
	Endpoint   string           `json:"endpoint" yaml:"endpoint"`
	Credential string           `json:"-" yaml:"credential,omitempty"`
	Model      string           `json:"model" yaml:"model"`
	Multimodal bool             `json:"multimodal,omitempty" yaml:"multimodal,omitempty"`
	Template   *RequestTemplate `json:"template,omitempty" yaml:"template,omitempty"`
	Params     GenerationParams `json:"params,omitempty" yaml:"params,omitempty"`
}

// DisplayName is the label snapshotted onto assistant messages.
func (p BackendProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Model
}
