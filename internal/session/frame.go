package session

import (
	"github.com/jwebster45206/artel-village/pkg/emotion"
	"github.com/jwebster45206/artel-village/pkg/host"
	"github.com/jwebster45206/artel-village/pkg/state"
)

// Frame types written by the server.
const (
	FrameText         = "text"
	FrameChoices      = "choices"
	FrameInput        = "input"
	FrameNotification = "notification"
	FrameGUI          = "gui"
	FrameEmotion      = "emotion"
	FrameIndicator    = "indicator"
	FrameEnd          = "end"
	FrameError        = "error"
)

// FrameReply is the only frame type the client sends.
const FrameReply = "reply"

// Frame is one server message. Prompt frames (text without auto_next,
// choices, input) carry an ID the client must echo in its Reply.
type Frame struct {
	Type string `json:"type"`
	ID   int64  `json:"id,omitempty"`

	Text      string        `json:"text,omitempty"`
	Speaker   string        `json:"speaker,omitempty"`
	AutoNext  bool          `json:"auto_next,omitempty"`
	TimeMS    int64         `json:"time_ms,omitempty"`
	Choices   []host.Choice `json:"choices,omitempty"`
	MaxLength int           `json:"max_length,omitempty"`

	GUI  string `json:"gui,omitempty"`
	Data any    `json:"data,omitempty"`

	// Target is the emotion target, or the NPC an indicator belongs to.
	// An indicator frame without a bubble clears it.
	Target string         `json:"target,omitempty"`
	Bubble emotion.Bubble `json:"bubble,omitempty"`

	Player *state.Player `json:"player,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Reply answers the prompt frame with the same ID. Value is the picked
// choice value or the typed input; an empty value dismisses a choice.
type Reply struct {
	Type  string `json:"type"`
	ID    int64  `json:"id"`
	Value string `json:"value,omitempty"`
}
