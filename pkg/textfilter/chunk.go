package textfilter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SplitFixed cuts text into chunks of at most size runes.
// Returns nil for empty text.
func SplitFixed(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// SplitSentences packs whole sentences into chunks of at most maxLen runes.
// A sentence ends at '.', '!' or '?' followed by whitespace. A sentence that
// is longer than maxLen on its own becomes its own chunk.
func SplitSentences(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences(text) {
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen+sentenceLen > maxLen && currentLen > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(sentence)
			currentLen = sentenceLen
			continue
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

// sentences splits on whitespace runs that follow sentence punctuation.
// The punctuation stays with its sentence; the whitespace is dropped.
func sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || i == 0 {
			continue
		}
		switch runes[i-1] {
		case '.', '!', '?':
		default:
			continue
		}

		out = append(out, string(runes[start:i]))
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
		i--
	}

	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// TitleWord returns s in English title case ("combat" -> "Combat").
func TitleWord(s string) string {
	return cases.Title(language.English).String(s)
}
