package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pomodisc/backend/internal/model"
)

const requestTimeout = 10 * time.Second

// StateView mirrors the daemon's state payload.
type StateView struct {
	State        model.TimerState `json:"state"`
	Decks        []model.DeckView `json:"decks"`
	PlayerError  *string          `json:"playerError"`
	AlarmEnabled bool             `json:"alarmEnabled"`
	ServerTime   time.Time        `json:"serverTime"`
}

type Track struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Src   string `json:"src"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SettingsPatch carries only the durations the user set on the command line.
type SettingsPatch struct {
	WorkMinutes       *float64 `json:"workMinutes,omitempty"`
	ShortBreakMinutes *float64 `json:"shortBreakMinutes,omitempty"`
	LongBreakMinutes  *float64 `json:"longBreakMinutes,omitempty"`
	TotalCycles       *float64 `json:"totalCycles,omitempty"`
	LongBreakInterval *float64 `json:"longBreakInterval,omitempty"`
}

type DeckPatch struct {
	URL            *string `json:"url,omitempty"`
	Source         *string `json:"source,omitempty"`
	LibraryTrackID *string `json:"libraryTrackId,omitempty"`
}

// APIError is the decoded error envelope of a failed request.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, e.Message, e.Status)
}

// Client talks to a running pomodisc daemon.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
	}
}

func (c *Client) State(ctx context.Context) (*StateView, error) {
	var view StateView
	if err := c.do(ctx, http.MethodGet, "/api/timer/state", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Action posts one of start, pause, resume or reset.
func (c *Client) Action(ctx context.Context, action string) (*StateView, error) {
	var view StateView
	if err := c.do(ctx, http.MethodPost, "/api/timer/"+action, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) UpdateSettings(ctx context.Context, patch SettingsPatch) (*StateView, error) {
	var view StateView
	if err := c.do(ctx, http.MethodPut, "/api/timer/settings", patch, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) UpdateDeck(ctx context.Context, deck string, patch DeckPatch) (*model.DeckView, error) {
	var out struct {
		Deck model.DeckView `json:"deck"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/decks/"+url.PathEscape(deck), patch, &out); err != nil {
		return nil, err
	}
	return &out.Deck, nil
}

func (c *Client) Tracks(ctx context.Context) ([]Track, error) {
	var out struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/library/tracks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tracks, nil
}

func (c *Client) ClearPlayerError(ctx context.Context) (*StateView, error) {
	var view StateView
	if err := c.do(ctx, http.MethodDelete, "/api/player/error", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) SetAlarm(ctx context.Context, enabled bool) (*StateView, error) {
	var view StateView
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPut, "/api/alarm", body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) History(ctx context.Context, limit int) ([]model.PhaseRecord, error) {
	var out struct {
		Phases []model.PhaseRecord `json:"phases"`
	}
	path := "/api/history?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Phases, nil
}

func (c *Client) Login(ctx context.Context, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Watch follows the state event stream and calls fn for every view until
// the stream ends or ctx is cancelled.
func (c *Client) Watch(ctx context.Context, fn func(StateView) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/timer/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("open event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:") && event == "state":
			var view StateView
			if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &view); err != nil {
				return fmt.Errorf("decode state event: %w", err)
			}
			if err := fn(view); err != nil {
				return err
			}
		case line == "":
			event = ""
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode, Code: "http_error", Message: resp.Status}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
