package llm

import (
	"testing"

	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/stretchr/testify/assert"
)

func TestExtract_BuiltinFamilies(t *testing.T) {
	tests := []struct {
		name    string
		family  models.Family
		payload string
		want    string
	}{
		{
			name:    "openai delta",
			family:  models.FamilyOpenAI,
			payload: `{"choices":[{"delta":{"content":"Hi"}}]}`,
			want:    "Hi",
		},
		{
			name:    "openai role-only chunk",
			family:  models.FamilyOpenAI,
			payload: `{"choices":[{"delta":{"role":"assistant"}}]}`,
			want:    "",
		},
		{
			name:    "openai full message",
			family:  models.FamilyOpenAI,
			payload: `{"choices":[{"message":{"role":"assistant","content":"whole"}}]}`,
			want:    "whole",
		},
		{
			name:    "anthropic text delta",
			family:  models.FamilyAnthropic,
			payload: `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
			want:    "lo",
		},
		{
			name:    "anthropic message_start",
			family:  models.FamilyAnthropic,
			payload: `{"type":"message_start","message":{"id":"msg_1"}}`,
			want:    "",
		},
		{
			name:    "anthropic non-streaming",
			family:  models.FamilyAnthropic,
			payload: `{"type":"message","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`,
			want:    "ab",
		},
		{
			name:    "gemini parts are joined",
			family:  models.FamilyGemini,
			payload: `{"candidates":[{"content":{"parts":[{"text":"foo"},{"text":"bar"}],"role":"model"}}]}`,
			want:    "foobar",
		},
		{
			name:    "ollama chat",
			family:  models.FamilyOllama,
			payload: `{"model":"llama3","message":{"role":"assistant","content":"yo"},"done":false}`,
			want:    "yo",
		},
		{
			name:    "ollama generate",
			family:  models.FamilyOllama,
			payload: `{"response":"gen","done":false}`,
			want:    "gen",
		},
		{
			name:    "family mismatch still matches by shape",
			family:  models.FamilyOllama,
			payload: `{"choices":[{"delta":{"content":"x"}}]}`,
			want:    "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.payload, tt.family, ""))
		})
	}
}

func TestExtract_DeclaredPath(t *testing.T) {
	payload := `{"out":{"items":[{"text":"first"},{"text":"second"}]},"n":3}`

	assert.Equal(t, "second", Extract(payload, models.FamilyCustom, "out.items[1].text"))
	assert.Equal(t, "3", Extract(payload, models.FamilyCustom, "n"))
	assert.Equal(t, "", Extract(payload, models.FamilyCustom, "out.items[5].text"))
	assert.Equal(t, "", Extract(payload, models.FamilyCustom, "missing.path"))
	assert.Equal(t, "", Extract(payload, models.FamilyCustom, "out.items"), "non-scalar yields empty")
}

func TestExtract_DeclaredPathOverridesFamily(t *testing.T) {
	payload := `{"choices":[{"delta":{"content":"family"}}],"custom":"declared"}`

	assert.Equal(t, "declared", Extract(payload, models.FamilyOpenAI, "custom"))
}

func TestExtract_UnrecognizedShapeYieldsEmpty(t *testing.T) {
	for _, payload := range []string{
		`{"something":"else"}`,
		`[]`,
		`42`,
		`not json at all`,
		``,
	} {
		assert.NotPanics(t, func() {
			assert.Equal(t, "", Extract(payload, "", ""))
		})
		_, ok := extract(payload, "", "")
		assert.False(t, ok, payload)
	}
}

func TestToGJSONPath(t *testing.T) {
	assert.Equal(t, "choices.0.delta.content", toGJSONPath("choices[0].delta.content"))
	assert.Equal(t, "a.1.2.b", toGJSONPath("a[1][2].b"))
	assert.Equal(t, `we\*ird.key`, toGJSONPath("we*ird.key"))
}

func TestBackendError(t *testing.T) {
	msg, ok := backendError(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`)
	assert.True(t, ok)
	assert.Equal(t, "quota exceeded", msg)

	msg, ok = backendError(`{"error":"plain"}`)
	assert.True(t, ok)
	assert.Equal(t, "plain", msg)

	_, ok = backendError(`{"error":null,"choices":[]}`)
	assert.False(t, ok)

	_, ok = backendError(`{"choices":[]}`)
	assert.False(t, ok)
}
