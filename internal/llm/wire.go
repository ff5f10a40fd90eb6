// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package llm

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// Framing is the way a streamed response body is split into payloads.
type Framing int

const (
	// FramingEventStream is text/event-stream: blank-line separated records
	// whose data fields form the payload.
	FramingEventStream Framing = iota
	// FramingNDJSON is one payload per line.
	FramingNDJSON
)

// doneSentinel marks the end of a stream and is never content.
const doneSentinel = "[DONE]"

const readBufferSize = 64 * 1024

// ParseFraming maps template names to a [Framing]. Unknown names report false.
func ParseFraming(s string) (Framing, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sse", "event-stream", "text/event-stream":
		return FramingEventStream, true
	case "ndjson", "jsonl", "application/x-ndjson":
		return FramingNDJSON, true
	default:
		return FramingEventStream, false
	}
}

func (f Framing) String() string {
	if f == FramingNDJSON {
		return "ndjson"
	}
	return "sse"
}

// Decoder turns a streamed body into a sequence of JSON payloads.
//
// The sequence is lazy and cannot be restarted. Units that are not valid JSON
// on their own (a fragment cut across chunk boundaries, keep-alive noise) are
// dropped and counted in Skipped. The end sentinel stops the sequence without
// being emitted.
//
//	dec := NewDecoder(body, FramingEventStream)
//	for dec.Next() {
//		handle(dec.Payload())
//	}
//	if err := dec.Err(); err != nil { ... }
type Decoder struct {
	r       *bufio.Reader
	framing Framing

	payload string
	err     error
	done    bool
	skipped int
}

// NewDecoder wraps r. The caller keeps ownership of r and closes it.
func NewDecoder(r io.Reader, framing Framing) *Decoder {
	return &Decoder{
		r:       bufio.NewReaderSize(r, readBufferSize),
		framing: framing,
	}
}

// Next advances to the next payload. It returns false at the end sentinel,
// at the end of the body, or on a read error.
func (d *Decoder) Next() bool {
	if d.done {
		return false
	}

	for {
		var (
			unit string
			err  error
		)
		if d.framing == FramingNDJSON {
			unit, err = d.nextLine()
		} else {
			unit, err = d.nextEvent()
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.err = err
			}
			d.done = true
			d.payload = ""
			return false
		}

		if strings.TrimSpace(unit) == doneSentinel {
			d.done = true
			d.payload = ""
			return false
		}

		if !gjson.Valid(unit) {
			d.skipped++
			continue
		}

		d.payload = unit
		return true
	}
}

// Payload is the unit produced by the last successful Next.
func (d *Decoder) Payload() string { return d.payload }

// Err returns the first non-EOF read error.
func (d *Decoder) Err() error { return d.err }

// Skipped counts units dropped because they were not valid JSON.
func (d *Decoder) Skipped() int { return d.skipped }

// nextEvent reads one event-stream record and joins its data lines with "\n".
// Records without data (comments, bare event names, retry hints) are skipped.
func (d *Decoder) nextEvent() (string, error) {
	var (
		data    []string
		hasData bool
	)

	for {
		line, err := d.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && hasData {
				return strings.Join(data, "\n"), nil
			}
			return "", err
		}

		if line == "" {
			if hasData {
				return strings.Join(data, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			// event, id and retry carry nothing we need
			continue
		}
		data = append(data, strings.TrimPrefix(value, " "))
		hasData = true
	}
}

// nextLine reads one non-blank line, stripping an optional "data:" prefix.
func (d *Decoder) nextLine() (string, error) {
	for {
		line, err := d.readLine()
		if err != nil {
			return "", err
		}

		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			line = strings.TrimSpace(rest)
		}
		if line == "" {
			continue
		}
		return line, nil
	}
}

// readLine returns one line without its terminator. A final line without a
// trailing newline is still returned; io.EOF follows on the next call.
func (d *Decoder) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) || line == "" {
			return "", err
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
