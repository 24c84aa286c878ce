package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/artel-village/internal/session"
	"github.com/jwebster45206/artel-village/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running artel-village API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Dialer            *websocket.Dialer
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Dialer:            websocket.DefaultDialer,
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}
	if suite.Player == "" {
		suite.Player = "Tester"
	}
	return suite, nil
}

// RunSuite creates a fresh player and runs every step against it.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	player, err := r.createPlayer(ctx, suite.Player)
	if err != nil {
		result.Error = fmt.Errorf("failed to create player: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.PlayerID = player.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, player.ID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, playerID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	transcript, sessionErr := r.play(stepCtx, playerID, step)
	result.Transcript = transcript
	result.Duration = time.Since(start)

	if err := checkSessionError(step.Expectations.Error, sessionErr); err != nil {
		result.Error = err
		return result
	}

	// The session saves before closing, so the stored player is the
	// authoritative post-step state.
	player, err := r.getPlayer(stepCtx, playerID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get player: %w", err)
		return result
	}

	if err := checkExpectations(step.Expectations, player, strings.Join(transcript, "\n")); err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	return result
}

func checkSessionError(want string, got error) error {
	switch {
	case want == "" && got != nil:
		return fmt.Errorf("session failed: %w", got)
	case want != "" && got == nil:
		return fmt.Errorf("expected session error containing '%s', but it succeeded", want)
	case want != "" && !strings.Contains(got.Error(), want):
		return fmt.Errorf("expected session error containing '%s', got: %v", want, got)
	}
	return nil
}

// play runs one session to its end frame, answering prompts from
// step.Replies. It returns what the session showed the player.
func (r *Runner) play(ctx context.Context, playerID uuid.UUID, step TestStep) ([]string, error) {
	q := url.Values{"player": {playerID.String()}}
	if step.Item != "" {
		q.Set("item", step.Item)
	} else {
		q.Set("event", step.Event)
	}
	wsURL := "ws" + strings.TrimPrefix(r.BaseURL, "http") + "/v1/play?" + q.Encode()

	conn, resp, err := r.Dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("handshake failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	replies := step.Replies
	next := func() string {
		if len(replies) == 0 {
			return ""
		}
		v := replies[0]
		replies = replies[1:]
		return v
	}

	var transcript []string
	for {
		var f session.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return transcript, fmt.Errorf("session closed before it ended: %w", err)
		}

		var reply *session.Reply
		switch f.Type {
		case session.FrameText:
			transcript = append(transcript, f.Text)
			if !f.AutoNext {
				reply = &session.Reply{Type: session.FrameReply, ID: f.ID}
			}
		case session.FrameChoices, session.FrameInput:
			transcript = append(transcript, f.Text)
			reply = &session.Reply{Type: session.FrameReply, ID: f.ID, Value: next()}
		case session.FrameNotification:
			transcript = append(transcript, f.Text)
		case session.FrameError:
			return transcript, errors.New(f.Error)
		case session.FrameEnd:
			return transcript, nil
		}

		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				return transcript, fmt.Errorf("failed to reply to frame %d: %w", f.ID, err)
			}
		}
	}
}

func (r *Runner) createPlayer(ctx context.Context, name string) (*state.Player, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/v1/players", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var p state.Player
	if err := r.do(req, http.StatusCreated, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Runner) getPlayer(ctx context.Context, id uuid.UUID) (*state.Player, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/players/%s", r.BaseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	var p state.Player
	if err := r.do(req, http.StatusOK, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Runner) do(req *http.Request, want int, dst any) error {
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s returned status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// checkExpectations validates the step expectations against the stored player
func checkExpectations(exp Expectations, p *state.Player, transcript string) error {
	if exp.Gold != nil && p.Gold != *exp.Gold {
		return fmt.Errorf("expected gold %d, got %d", *exp.Gold, p.Gold)
	}

	if exp.HP != nil && p.HP != *exp.HP {
		return fmt.Errorf("expected hp %d, got %d", *exp.HP, p.HP)
	}

	for id, want := range exp.Inventory {
		if got := p.ItemCount(id); got != want {
			return fmt.Errorf("expected %d of '%s', got %d. Actual inventory: %v", want, id, got, p.Inventory)
		}
	}

	for key, want := range exp.Vars {
		raw, exists := p.Variables[key]
		if !exists {
			return fmt.Errorf("expected variable %s to be set, but it doesn't exist", key)
		}
		if string(raw) != want {
			return fmt.Errorf("expected variable %s to be %s, got %s", key, want, string(raw))
		}
	}

	for _, s := range exp.States {
		if !p.HasState(s) {
			return fmt.Errorf("expected state '%s', got %v", s, p.States)
		}
	}

	lower := strings.ToLower(transcript)
	for _, text := range exp.TranscriptContains {
		if !strings.Contains(lower, strings.ToLower(text)) {
			return fmt.Errorf("expected transcript to contain '%s', but it didn't", text)
		}
	}
	for _, text := range exp.TranscriptNotContains {
		if strings.Contains(lower, strings.ToLower(text)) {
			return fmt.Errorf("expected transcript to NOT contain '%s', but it did", text)
		}
	}

	if exp.TranscriptRegex != "" {
		matched, err := regexp.MatchString(exp.TranscriptRegex, transcript)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("transcript didn't match regex pattern: %s", exp.TranscriptRegex)
		}
	}

	return nil
}
