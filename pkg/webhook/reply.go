package webhook

import (
	"regexp"
	"strings"

	"github.com/jwebster45206/artel-village/pkg/textfilter"
	"github.com/tidwall/gjson"
)

// Reply is a structured NPC reply carrying its own emotion token.
type Reply struct {
	Text    string
	Emotion string
}

// Quest is the structured quest offer returned by the quest giver webhook.
// Fields absent from the response are left empty.
type Quest struct {
	Content string
	Emotion string
	Title   string
	Reward  string
	Target  int
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// FencedJSON returns the body of the first ```json fenced block in text.
// Without a fence it returns text trimmed and false.
func FencedJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return strings.TrimSpace(text), false
}

// embedded resolves the object carrying the structured payload. Agent
// backends nest it as a JSON string under message.content or output, others
// send it as the body itself.
func embedded(body []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return gjson.Result{}, false
	}

	for _, path := range []string{"message.content", "choices.0.message.content", "output"} {
		v := doc.Get(path)
		if v.Type != gjson.String {
			continue
		}
		// unfenced content may still be bare JSON
		inner, _ := FencedJSON(v.Str)
		if gjson.Valid(inner) {
			if obj := gjson.Parse(inner); obj.IsObject() {
				return obj, true
			}
		}
	}
	return doc, true
}

// DecodeReply extracts a {response|content, emotion} reply. ok is false when
// the body carries no usable text.
func DecodeReply(body []byte) (Reply, bool) {
	obj, ok := embedded(body)
	if !ok {
		return Reply{}, false
	}

	var text string
	for _, key := range []string{"response", "content"} {
		if v := obj.Get(key); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			text = v.Str
			break
		}
	}
	if text == "" {
		return Reply{}, false
	}

	return Reply{
		Text:    textfilter.StripMarkdown(text),
		Emotion: obj.Get("emotion").String(),
	}, true
}

// DecodeQuest extracts a quest offer. ok is false when the body does not
// contain a quest object at all.
func DecodeQuest(body []byte) (Quest, bool) {
	obj, ok := embedded(body)
	if !ok {
		return Quest{}, false
	}

	q := Quest{
		Content: obj.Get("content").String(),
		Emotion: obj.Get("emotion").String(),
		Title:   obj.Get("title").String(),
		Reward:  obj.Get("reward").String(),
		Target:  int(obj.Get("target").Int()),
	}
	if q.Content == "" && q.Title == "" {
		return Quest{}, false
	}
	q.Content = textfilter.StripMarkdown(q.Content)
	return q, true
}

// ImageURL finds a generated image URL in body. It returns "" when none is
// present.
func ImageURL(body []byte) string {
	obj, ok := embedded(body)
	if !ok {
		return ""
	}
	for _, key := range []string{"url", "imageUrl", "image_url"} {
		if v := obj.Get(key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
