// Package emotion maps free-text emotion words onto the fixed set of bubble
// animations the client can draw over an NPC or player.
package emotion

import (
	"strings"
)

// Bubble is one of the emotion bubble animations known to the client.
type Bubble string

const (
	None        Bubble = ""
	Confusion   Bubble = "confusion"
	Question    Bubble = "question"
	Idea        Bubble = "idea"
	Like        Bubble = "like"
	Surprise    Bubble = "surprise"
	Sad         Bubble = "sad"
	Happy       Bubble = "happy"
	Exclamation Bubble = "exclamation"
	ThreeDot    Bubble = "threedot"
	Star        Bubble = "star"
	Cloud       Bubble = "cloud"
)

// Default is shown when a webhook sends an emotion we do not recognize.
const Default = Idea

var bubbles = []Bubble{
	Confusion, Question, Idea, Like, Surprise, Sad, Happy, Exclamation, ThreeDot, Star, Cloud,
}

// All returns every drawable bubble.
func All() []Bubble {
	out := make([]Bubble, len(bubbles))
	copy(out, bubbles)
	return out
}

// Valid reports whether b is a drawable bubble.
func (b Bubble) Valid() bool {
	for _, known := range bubbles {
		if b == known {
			return true
		}
	}
	return false
}

func (b Bubble) String() string {
	return string(b)
}

// Parse decodes a bubble identifier as it appears on the wire.
func Parse(s string) (Bubble, bool) {
	b := Bubble(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return None, false
	}
	return b, true
}

// Emotion tokens as produced by the dialogue webhooks and by Detect.
const (
	TokenThink       = "think"
	TokenIdea        = "idea"
	TokenQuestion    = "question"
	TokenLike        = "like"
	TokenSurprise    = "surprise"
	TokenSad         = "sad"
	TokenHappy       = "happy"
	TokenConfused    = "confused"
	TokenExclamation = "exclamation"
	TokenClock       = "clock"
	TokenTime        = "time"
)

var tokenBubbles = map[string]Bubble{
	TokenThink:       Idea,
	TokenIdea:        Idea,
	TokenQuestion:    Question,
	TokenLike:        Like,
	TokenSurprise:    Surprise,
	TokenSad:         Sad,
	TokenHappy:       Happy,
	TokenConfused:    Confusion,
	TokenExclamation: Exclamation,
	TokenClock:       ThreeDot,
	TokenTime:        ThreeDot,
}

// Map converts an emotion token to a bubble. It is total: anything it does
// not know maps to Default.
func Map(token string) Bubble {
	if b, ok := tokenBubbles[strings.ToLower(strings.TrimSpace(token))]; ok {
		return b
	}
	return Default
}

// keywordRule maps any of its keywords to a token. First match wins.
type keywordRule struct {
	token    string
	keywords []string
}

var keywordRules = []keywordRule{
	{TokenHappy, []string{"happy", "joy", "excited"}},
	{TokenSad, []string{"sad", "depressed", "melancholy"}},
	{TokenSurprise, []string{"surprised", "amazed", "astonished"}},
	{TokenConfused, []string{"confused", "puzzled"}},
	{TokenQuestion, []string{"question", "curious", "wonder"}},
	{TokenIdea, []string{"idea", "thought"}},
	{TokenLike, []string{"like", "love", "appreciate"}},
	{TokenExclamation, []string{"exclaim", "wow"}},
}

// Detect scans a free-text reply for emotion keywords and returns the token
// of the first rule that matches, or "think" when none does. Matching is a
// plain substring test, so "sadly" counts as sad.
func Detect(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.token
			}
		}
	}
	return TokenThink
}

// FromText picks the bubble for a free-text reply.
func FromText(text string) Bubble {
	return Map(Detect(text))
}
