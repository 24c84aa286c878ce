// Package webhook turns the loosely shaped bodies returned by the AI
// webhooks into plain dialogue text.
//
// A body is classified into exactly one Shape and the text is extracted
// from that shape alone:
//
//	{"choices":[{"message":{"content":"..."}}]}  ShapeChoices
//	0:"Hel"\n1:"lo"\nf:{"messageId":"m1"}        ShapeStream
//	"just text" or just text                     ShapePlain
//	{"0":"Hel","1":["l","o"],"f":{...}}          ShapeFragments
//	["Hel","lo"]                                 ShapeFragments
//
// The stream format is a legacy shim for one agent backend. It is detected
// by sniffing the string and should not be extended.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/artel-village/pkg/textfilter"
	"github.com/tidwall/gjson"
)

// Shape identifies which response layout a body was recognized as.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeChoices
	ShapeStream
	ShapePlain
	ShapeFragments
)

func (s Shape) String() string {
	switch s {
	case ShapeChoices:
		return "choices"
	case ShapeStream:
		return "stream"
	case ShapePlain:
		return "plain"
	case ShapeFragments:
		return "fragments"
	default:
		return "unknown"
	}
}

const (
	// FallbackReply is shown when a response cannot be understood.
	FallbackReply = "I seem to be having trouble connecting to my thoughts right now."
	// ConnectionFallback is shown when the agent could not be reached.
	ConnectionFallback = "I seem to be having trouble connecting to my thoughts right now. Let's talk again later."
)

// ErrUnrecognized is returned when a body matches none of the known shapes.
var ErrUnrecognized = errors.New("unrecognized webhook response")

// Result is a recognized response. Text has markdown stripped.
type Result struct {
	Shape     Shape
	Text      string
	MessageID string // stream responses only
}

var (
	quotedIndexLine = regexp.MustCompile(`(?m)^\d+:"`)
	bareIndexLine   = regexp.MustCompile(`(?m)^\d+: `)
	indexedLine     = regexp.MustCompile(`^(\d+):(.*)$`)
	numericKey      = regexp.MustCompile(`^\d+$`)
)

// Parse classifies body and extracts its text. A recognized body whose
// text comes out blank is reported as unrecognized.
func Parse(body []byte) (Result, error) {
	res, err := classify(body)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, fmt.Errorf("%w: %s response has no text", ErrUnrecognized, res.Shape)
	}
	return res, nil
}

func classify(body []byte) (Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Result{}, fmt.Errorf("%w: empty body", ErrUnrecognized)
	}

	// Anything that is not JSON is a raw string.
	if !gjson.ValidBytes(trimmed) {
		return parseString(string(body))
	}

	doc := gjson.ParseBytes(trimmed)
	switch {
	case doc.Type == gjson.String:
		return parseString(doc.Str)
	case doc.IsObject():
		if doc.Get("choices").Exists() {
			return parseChoices(doc)
		}
		return parseFragments(doc)
	case doc.IsArray():
		// An array is a fragment object keyed by position.
		return parseFragments(doc)
	default:
		return Result{}, fmt.Errorf("%w: json %s", ErrUnrecognized, jsonKind(doc))
	}
}

func jsonKind(doc gjson.Result) string {
	switch doc.Type {
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	default:
		return "value"
	}
}

// Text returns the dialogue text of body, or FallbackReply when the body
// cannot be understood. The failure is logged, never returned.
func Text(logger *slog.Logger, body []byte) string {
	res, err := Parse(body)
	if err != nil {
		logger.Error("Unrecognized webhook response",
			"error", err,
			"sample", Sample(body, 500))
		return FallbackReply
	}
	logger.Debug("Webhook response parsed",
		"shape", res.Shape.String(),
		"length", len(res.Text))
	return res.Text
}

func parseChoices(doc gjson.Result) (Result, error) {
	content := doc.Get("choices.0.message.content")
	if content.Type != gjson.String {
		return Result{}, fmt.Errorf("%w: choices without message content", ErrUnrecognized)
	}
	return Result{Shape: ShapeChoices, Text: textfilter.StripMarkdown(content.Str)}, nil
}

func parseString(s string) (Result, error) {
	if s == "" {
		return Result{}, fmt.Errorf("%w: empty string", ErrUnrecognized)
	}

	if looksLikeStream(s) {
		if text, id, ok := parseStream(s); ok {
			return Result{Shape: ShapeStream, Text: textfilter.StripMarkdown(text), MessageID: id}, nil
		}
	}
	return Result{Shape: ShapePlain, Text: textfilter.StripMarkdown(s)}, nil
}

func looksLikeStream(s string) bool {
	if !strings.Contains(s, "\n") || !strings.Contains(s, ":") {
		return false
	}
	return strings.Contains(s, "f:{") || quotedIndexLine.MatchString(s) || bareIndexLine.MatchString(s)
}

// parseStream reassembles "N:<json string>" lines in ascending N order.
// Lines that do not decode are skipped; ok is false when nothing decoded.
func parseStream(s string) (text string, messageID string, ok bool) {
	buckets := make(map[int][]string)

	for _, raw := range strings.Split(strings.TrimSpace(s), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if meta, found := strings.CutPrefix(line, "f:"); found {
			if id := gjson.Get(meta, "messageId"); id.Type == gjson.String {
				messageID = id.Str
			}
			continue
		}

		m := indexedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		var fragment string
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[2])), &fragment); err != nil {
			continue
		}
		buckets[index] = append(buckets[index], fragment)
	}

	if len(buckets) == 0 {
		return "", messageID, false
	}

	indices := make([]int, 0, len(buckets))
	for i := range buckets {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var sb strings.Builder
	for _, i := range indices {
		for _, fragment := range buckets[i] {
			sb.WriteString(fragment)
		}
	}
	return sb.String(), messageID, true
}

func parseFragments(doc gjson.Result) (Result, error) {
	fragments := make(map[int]gjson.Result)
	hasMeta := false

	if doc.IsArray() {
		for i, value := range doc.Array() {
			fragments[i] = value
		}
	} else {
		doc.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if k == "f" {
				hasMeta = true
				return true
			}
			if !numericKey.MatchString(k) {
				return true
			}
			if index, err := strconv.Atoi(k); err == nil {
				fragments[index] = value
			}
			return true
		})
	}

	if len(fragments) == 0 && !hasMeta {
		return Result{}, fmt.Errorf("%w: object without choices or fragment keys", ErrUnrecognized)
	}

	indices := make([]int, 0, len(fragments))
	for i := range fragments {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var sb strings.Builder
	for _, i := range indices {
		value := fragments[i]
		switch {
		case value.Type == gjson.String:
			sb.WriteString(value.Str)
		case value.IsArray():
			for _, part := range value.Array() {
				sb.WriteString(part.String())
			}
		}
	}

	if sb.Len() == 0 {
		return Result{}, fmt.Errorf("%w: fragment object produced no text", ErrUnrecognized)
	}
	return Result{Shape: ShapeFragments, Text: textfilter.StripMarkdown(sb.String())}, nil
}

// Sample truncates body to at most n bytes for logging, backing off to a
// rune boundary.
func Sample(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	for n > 0 && !utf8.RuneStart(body[n]) {
		n--
	}
	return string(body[:n]) + "..."
}
