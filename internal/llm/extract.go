// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package llm

import (
	"strings"

	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/tidwall/gjson"
)

// shapeRule recognizes one family's payload and pulls its text out.
type shapeRule struct {
	family  models.Family
	matches func(gjson.Result) bool
	text    func(gjson.Result) string
}

// builtinRules are tried in this order; the first rule whose shape matches
// wins. The requested family's own rules are moved to the front.
var builtinRules = []shapeRule{
	{
		family:  models.FamilyOpenAI,
		matches: func(r gjson.Result) bool { return r.Get("choices").IsArray() },
		text: func(r gjson.Result) string {
			if c := r.Get("choices.0.delta.content"); c.Exists() {
				return c.String()
			}
			if c := r.Get("choices.0.message.content"); c.Exists() {
				return c.String()
			}
			return r.Get("choices.0.text").String()
		},
	},
	{
		family:  models.FamilyAnthropic,
		matches: isAnthropicShape,
		text: func(r gjson.Result) string {
			if r.Get("type").String() == "content_block_delta" {
				return r.Get("delta.text").String()
			}
			// non-streaming message
			return joinTexts(r.Get("content.#(type==\"text\")#.text"))
		},
	},
	{
		family: models.FamilyGemini,
		matches: func(r gjson.Result) bool {
			return r.Get("candidates").IsArray() || r.Get("usageMetadata").Exists()
		},
		text: func(r gjson.Result) string {
			return joinTexts(r.Get("candidates.0.content.parts.#.text"))
		},
	},
	{
		family:  models.FamilyOllama,
		matches: func(r gjson.Result) bool { return r.Get("message.content").Exists() },
		text:    func(r gjson.Result) string { return r.Get("message.content").String() },
	},
	{
		family:  models.FamilyOllama,
		matches: func(r gjson.Result) bool { return r.Get("response").Exists() && r.Get("done").Exists() },
		text:    func(r gjson.Result) string { return r.Get("response").String() },
	},
}

var anthropicEvents = map[string]struct{}{
	"message":             {},
	"message_start":       {},
	"message_delta":       {},
	"message_stop":        {},
	"content_block_start": {},
	"content_block_delta": {},
	"content_block_stop":  {},
	"ping":                {},
}

func isAnthropicShape(r gjson.Result) bool {
	_, ok := anthropicEvents[r.Get("type").String()]
	return ok
}

// Extract returns the text delta carried by payload.
//
// A non-empty path overrides the family rules. Without a path the built-in
// rules are tried with the given family first. Unknown shapes, absent paths
// and invalid JSON all yield "".
func Extract(payload string, family models.Family, path string) string {
	delta, _ := extract(payload, family, path)
	return delta
}

// extract also reports whether the payload had a shape it understood, so the
// transport can tell an empty keep-alive from a stream it cannot read.
func extract(payload string, family models.Family, path string) (string, bool) {
	if !gjson.Valid(payload) {
		return "", false
	}
	root := gjson.Parse(payload)

	if path != "" {
		r := root.Get(toGJSONPath(path))
		if !r.Exists() {
			return "", false
		}
		return scalarString(r), true
	}

	for _, rule := range orderedRules(family) {
		if rule.matches(root) {
			return rule.text(root), true
		}
	}
	return "", false
}

func orderedRules(family models.Family) []shapeRule {
	ordered := make([]shapeRule, 0, len(builtinRules))
	for _, r := range builtinRules {
		if r.family == family {
			ordered = append(ordered, r)
		}
	}
	for _, r := range builtinRules {
		if r.family != family {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// backendError reports an error object embedded in a payload, as sent by
// OpenAI-compatible proxies and Anthropic "error" events.
func backendError(payload string) (string, bool) {
	e := gjson.Get(payload, "error")
	if !e.Exists() || e.Type == gjson.Null {
		return "", false
	}
	if msg := e.Get("message"); msg.Exists() {
		return msg.String(), true
	}
	return e.String(), true
}

// toGJSONPath rewrites "choices[0].delta.content" as "choices.0.delta.content"
// and escapes characters gjson would treat as syntax.
func toGJSONPath(path string) string {
	segments := strings.Split(path, ".")
	out := make([]string, 0, len(segments)+2)
	for _, seg := range segments {
		name, rest, hasIndex := strings.Cut(seg, "[")
		if name != "" {
			out = append(out, escapePathKey(name))
		}
		for hasIndex {
			var idx string
			idx, rest, _ = strings.Cut(rest, "]")
			out = append(out, strings.TrimSpace(idx))
			_, rest, hasIndex = strings.Cut(rest, "[")
		}
	}
	return strings.Join(out, ".")
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

func escapePathKey(key string) string {
	return pathEscaper.Replace(key)
}

func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String()
	default:
		return ""
	}
}

func joinTexts(r gjson.Result) string {
	if !r.IsArray() {
		return r.String()
	}
	var b strings.Builder
	for _, part := range r.Array() {
		b.WriteString(part.String())
	}
	return b.String()
}
