package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/llm"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/models"
)

const (
	maxTitleRunes = 40
	untitledTitle = "New conversation"
	titleQuestion = "Reply with a short title, at most six words, for the conversation above. Reply with the title only."
)

// TitleGenerator asks the backend for a short conversation title.
//
// The wait is bounded by a soft timeout: when it expires the generator
// returns [FallbackTitle] and leaves the backend call running detached from
// the caller's context until it finishes on its own.
type TitleGenerator struct {
	completer llm.Streamer
	timeout   time.Duration
	logger    *logger.Logger
}

func NewTitleGenerator(completer llm.Streamer, timeout time.Duration, log *logger.Logger) *TitleGenerator {
	if timeout <= 0 {
		timeout = config.DefaultTitleTimeout
	}
	return &TitleGenerator{completer: completer, timeout: timeout, logger: log}
}

// Generate returns a title for the conversation history. It never fails.
func (g *TitleGenerator) Generate(ctx context.Context, profile models.BackendProfile, history []models.Message) string {
	fallback := FallbackTitle(history)

	prompt := make([]models.Message, 0, len(history)+1)
	for _, m := range history {
		m.Attachments = nil
		prompt = append(prompt, m)
	}
	prompt = append(prompt, models.Message{Role: models.RoleUser, Content: titleQuestion, Timestamp: models.Now()})

	type result struct {
		title string
		err   error
	}
	// buffered so the detached call can always finish
	done := make(chan result, 1)
	go func() {
		title, err := g.completer.Complete(context.WithoutCancel(ctx), profile, prompt)
		done <- result{title: title, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			g.logger.Err(r.err).Str("func", "*TitleGenerator.Generate").Msg("title request failed")
			return fallback
		}
		if title := cleanTitle(r.title); title != "" {
			return title
		}
		return fallback
	case <-timer.C:
		g.logger.Warn().Str("func", "*TitleGenerator.Generate").Dur("timeout", g.timeout).Msg("title request abandoned")
		return fallback
	case <-ctx.Done():
		return fallback
	}
}

// FallbackTitle is the first user message cut to 40 runes.
func FallbackTitle(history []models.Message) string {
	for _, m := range history {
		if m.Role != models.RoleUser {
			continue
		}
		if title := truncateRunes(strings.Join(strings.Fields(m.Content), " "), maxTitleRunes); title != "" {
			return title
		}
	}
	return untitledTitle
}

func cleanTitle(raw string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "Title:")
	line = strings.Trim(strings.TrimSpace(line), "\"'`*")
	line = strings.TrimSuffix(line, ".")
	return truncateRunes(strings.TrimSpace(line), maxTitleRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
