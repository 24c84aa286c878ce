package textfilter

import (
	"regexp"
)

// markdownRule is a single find/replace step of the markdown stripper.
type markdownRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order. Line-anchored rules only consume horizontal whitespace
// so a rule can never swallow a blank line.
var markdownRules = []markdownRule{
	// headers (##, ###, ...)
	{regexp.MustCompile(`(?m)^(?:#{1,6}[ \t]+)+`), ""},
	// **bold**
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	// _italic_
	{regexp.MustCompile(`_([^_]+)_`), "$1"},
	// bullets keep a plain dash
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), "- "},
	// blockquotes
	{regexp.MustCompile(`(?m)^(?:>[ \t]+)+`), ""},
	// fenced code blocks
	{regexp.MustCompile("(?s)```.*?```"), ""},
	// inline code
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	// horizontal rules
	{regexp.MustCompile(`(?m)^[ \t]*[-*_]{3,}[ \t]*$`), ""},
	// more than two consecutive line breaks
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// StripMarkdown removes markdown markup from model output so it can be shown
// in a plain dialogue box. The result is a fixpoint: stripping it again
// returns it unchanged.
func StripMarkdown(text string) string {
	if text == "" {
		return ""
	}

	// Every pass either shortens the text or only rewrites bullet markers
	// to "-", so the loop ends.
	for {
		next := stripOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func stripOnce(text string) string {
	for _, rule := range markdownRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return text
}
