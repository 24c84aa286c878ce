// Package host describes what an NPC script may ask of the game host while a
// player is talking to it. Prompts block until the player responds; the rest
// are fire-and-forget.
package host

import (
	"context"
	"errors"
	"time"

	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/state"
)

// GUI identifiers understood by the client.
const (
	GUIArtworkViewer  = "rpg-artwork-viewer"
	GUIImageViewer    = "rpg-image-viewer"
	GUIQuestInventory = "rpg-quest-inventory"
)

// ArtworkView is the payload of GUIArtworkViewer.
type ArtworkView struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Artist      string `json:"artist,omitempty"`
}

// ImageView is the payload of GUIImageViewer.
type ImageView struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// TargetPlayer addresses an emotion bubble to the player sprite rather than
// to the NPC.
const TargetPlayer = "player"

// ErrClosed is returned by prompts once the player has gone away.
var ErrClosed = errors.New("player disconnected")

type TextOptions struct {
	Speaker  string        `json:"speaker,omitempty"`
	AutoNext bool          `json:"auto_next,omitempty"` // advance without waiting for the player
	Time     time.Duration `json:"time,omitempty"`      // display time when AutoNext is set
}

type InputOptions struct {
	Speaker   string `json:"speaker,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

type Choice struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Player is the host side of a conversation.
type Player interface {
	ID() string
	Name() string
	// State is the mutable player state. Scripts change it in place; the
	// host persists it when the script returns.
	State() *state.Player

	ShowText(ctx context.Context, text string, opts TextOptions) error
	// ShowChoices returns the picked choice, or nil when the player
	// dismissed the prompt.
	ShowChoices(ctx context.Context, prompt string, choices []Choice, opts TextOptions) (*Choice, error)
	ShowInputBox(ctx context.Context, prompt string, opts InputOptions) (string, error)

	ShowNotification(ctx context.Context, message string)
	OpenGUI(ctx context.Context, gui string, data any)
	ShowEmotion(ctx context.Context, target string, bubble emotion.Bubble)
}

// Pick looks up a choice by value.
func Pick(choices []Choice, value string) *Choice {
	for i := range choices {
		if choices[i].Value == value {
			return &choices[i]
		}
	}
	return nil
}
