package runner

import (
	"time"

	"github.com/google/uuid"
)

// TestSuite is one player's walk through the village.
type TestSuite struct {
	Name   string     `json:"name"`
	Player string     `json:"player"` // name the player is created with
	Steps  []TestStep `json:"steps"`
}

// TestStep opens one play session, either talking to an NPC or using an
// item, and answers its prompts from Replies in order. Text prompts are
// acknowledged without consuming a reply. Once Replies runs out, choices
// are dismissed and input boxes are left empty.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Event        string       `json:"event,omitempty"`
	Item         string       `json:"item,omitempty"`
	Replies      []string     `json:"replies,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a step's session ends.
type Expectations struct {
	Gold      *int              `json:"gold,omitempty"`
	HP        *int              `json:"hp,omitempty"`
	Inventory map[string]int    `json:"inventory,omitempty"` // item id -> count, 0 means absent
	Vars      map[string]string `json:"vars,omitempty"`      // raw JSON values
	States    []string          `json:"states,omitempty"`

	// Transcript checks run over every text, choice prompt and notification
	// the session showed.
	TranscriptContains    []string `json:"transcript_contains,omitempty"`
	TranscriptNotContains []string `json:"transcript_not_contains,omitempty"`
	TranscriptRegex       string   `json:"transcript_regex,omitempty"`

	// Error expects the session to fail, e.g. using an item the player does
	// not own. The value must appear in the error.
	Error string `json:"error,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName   string
	Success    bool
	Error      error
	Duration   time.Duration
	Transcript []string
}

// TestJob represents a test suite loaded from a case file
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	PlayerID uuid.UUID
}
