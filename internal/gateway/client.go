package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"artiq/cli/internal/game"
)

const DefaultBaseURL = "https://api.artifactsmmo.com"

// Error is a normalized remote failure. Message is the text shown to the user.
type Error struct {
	Status  int
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status: %d", e.Status)
}

// Message flattens any error into the single string surfaced on a failed command.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var remote *Error
	if errors.As(err, &remote) {
		return remote.Error()
	}
	return err.Error()
}

type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, httpClient: httpClient, token: strings.TrimSpace(opts.Token)}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request and returns the raw "data" member of the response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		out := &Error{Status: res.StatusCode}
		if decodeErr == nil && env.Error != nil {
			out.Code = env.Error.Code
			out.Message = env.Error.Message
		}
		return nil, out
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("decode %s response: missing data", path)
	}
	return env.Data, nil
}

func (c *Client) Status(ctx context.Context) (game.ServerStatus, error) {
	data, err := c.do(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return game.ServerStatus{}, err
	}
	var out game.ServerStatus
	if err := json.Unmarshal(data, &out); err != nil {
		return game.ServerStatus{}, fmt.Errorf("decode status: %w", err)
	}
	return out, nil
}

// ServerTime satisfies the clock probe.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if status.ServerTime.IsZero() {
		return time.Time{}, errors.New("status response has no server_time")
	}
	return status.ServerTime, nil
}

func (c *Client) Character(ctx context.Context, name string) (game.Character, error) {
	data, err := c.do(ctx, http.MethodGet, "/characters/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return game.Character{}, err
	}
	var out game.Character
	if err := json.Unmarshal(data, &out); err != nil {
		return game.Character{}, fmt.Errorf("decode character %s: %w", name, err)
	}
	return out, nil
}

func (c *Client) Item(ctx context.Context, code string) (game.Item, error) {
	data, err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(code), nil, nil)
	if err != nil {
		return game.Item{}, err
	}
	var out game.Item
	if err := json.Unmarshal(data, &out); err != nil {
		return game.Item{}, fmt.Errorf("decode item %s: %w", code, err)
	}
	return out, nil
}

// Maps lists tiles holding the given content type, optionally narrowed to one content code.
func (c *Client) Maps(ctx context.Context, contentType, contentCode string) ([]game.MapTile, error) {
	q := url.Values{}
	if contentType != "" {
		q.Set("content_type", contentType)
	}
	if contentCode != "" {
		q.Set("content_code", contentCode)
	}
	data, err := c.do(ctx, http.MethodGet, "/maps", q, nil)
	if err != nil {
		return nil, err
	}
	var out []game.MapTile
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode maps: %w", err)
	}
	return out, nil
}

func (c *Client) action(ctx context.Context, name, op string, body any) (game.ActionResult, error) {
	path := "/my/" + url.PathEscape(name) + "/action/" + op
	data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return game.ActionResult{}, err
	}
	var out game.ActionResult
	if err := json.Unmarshal(data, &out); err != nil {
		return game.ActionResult{}, fmt.Errorf("decode %s result: %w", op, err)
	}
	out.Detail = data
	return out, nil
}
