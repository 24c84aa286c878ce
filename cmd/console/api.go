package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/artel-village/internal/items"
	"github.com/jwebster45206/artel-village/internal/npc"
	"github.com/jwebster45206/artel-village/internal/session"
	"github.com/jwebster45206/artel-village/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// decodeResponse reads an API response, turning non-want statuses into the
// API's error message.
func decodeResponse(resp *http.Response, want int, what string, dst any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("failed to %s: %s", what, errorResp.Error)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", what, err)
	}
	return nil
}

func createPlayer(client *http.Client, baseURL, name string) (*state.Player, error) {
	jsonData, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/players", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var p state.Player
	if err := decodeResponse(resp, http.StatusCreated, "create player", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func getPlayer(client *http.Client, baseURL string, id uuid.UUID) (*state.Player, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/players/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var p state.Player
	if err := decodeResponse(resp, http.StatusOK, "get player", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func listNPCs(client *http.Client, baseURL string) ([]npc.Event, error) {
	resp, err := client.Get(baseURL + "/v1/npcs")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var events []npc.Event
	if err := decodeResponse(resp, http.StatusOK, "list NPCs", &events); err != nil {
		return nil, err
	}
	return events, nil
}

func listItems(client *http.Client, baseURL string) ([]items.Item, error) {
	resp, err := client.Get(baseURL + "/v1/items")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var list []items.Item
	if err := decodeResponse(resp, http.StatusOK, "list items", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// frameConn is the part of *websocket.Conn a play session needs.
type frameConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// openSession dials the play endpoint for one event or item.
func openSession(baseURL string, playerID uuid.UUID, target session.Target) (frameConn, error) {
	q := url.Values{"player": {playerID.String()}}
	if target.Item != "" {
		q.Set("item", target.Item)
	} else {
		q.Set("event", target.Event)
	}
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/v1/play?" + q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			defer func() {
				_ = resp.Body.Close()
			}()
			var p struct{}
			if derr := decodeResponse(resp, http.StatusSwitchingProtocols, "start session", &p); derr != nil {
				return nil, derr
			}
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return conn, nil
}

type frameMsg struct {
	frame session.Frame
	err   error
}

// readFrame waits for the next server frame. The UI issues it again after
// every frame it handles.
func readFrame(conn frameConn) tea.Cmd {
	return func() tea.Msg {
		var f session.Frame
		err := conn.ReadJSON(&f)
		return frameMsg{frame: f, err: err}
	}
}
