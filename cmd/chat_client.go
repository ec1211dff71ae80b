package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tibbisekreter/cli/cmd/utils"
	"github.com/tibbisekreter/cli/cmd/version"
	"github.com/tibbisekreter/cli/internal/chat"
)

// fallbackServerURL is used when the base URL is empty.
const fallbackServerURL = "http://localhost:5000"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse is the body the backend answers with. Reply is a pointer so
// that a missing field can be told apart from an empty reply.
type ChatResponse struct {
	Reply *string `json:"reply"`
}

var errMissingReply = errors.New(`response has no "reply" field`)

// ChatClient talks to the assistant backend. The base URL may be swapped
// by a config reload while a request is running.
type ChatClient struct {
	baseURL    atomic.Pointer[string]
	SessionID  string
	HTTPClient utils.HTTPClient
}

// NewChatClient creates a client with a fresh session id. The id is sent
// as X-Session-ID so backend logs can be correlated with ours.
func NewChatClient(baseURL string, httpClient utils.HTTPClient) *ChatClient {
	if httpClient == nil {
		httpClient = utils.GetHTTPClient()
	}
	c := &ChatClient{SessionID: uuid.New().String(), HTTPClient: httpClient}
	c.SetBaseURL(baseURL)
	return c
}

// SetBaseURL changes the backend for later requests.
func (c *ChatClient) SetBaseURL(u string) { c.baseURL.Store(&u) }

func (c *ChatClient) BaseURL() string {
	if p := c.baseURL.Load(); p != nil {
		return *p
	}
	return ""
}

// buildChatURL resolves the chat endpoint under base.
func buildChatURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = fallbackServerURL
	}
	return base + "/chat"
}

func (c *ChatClient) newRequest(ctx context.Context, prompt string) (*http.Request, error) {
	body, err := json.Marshal(ChatRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, buildChatURL(c.BaseURL()), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.SessionID != "" {
		req.Header.Set("X-Session-ID", c.SessionID)
	}
	return req, nil
}

// Send posts prompt and returns the reply. Every failure is a
// *chat.TransportError. There is no timeout; ctx is the only way to abandon
// a request.
func (c *ChatClient) Send(ctx context.Context, prompt string) (string, error) {
	const op = "POST /chat"

	req, err := c.newRequest(ctx, prompt)
	if err != nil {
		return "", &chat.TransportError{Op: op, Err: err}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &chat.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &chat.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &chat.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(utils.PrettyServerError(resp, body))}
	}

	var out ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &chat.TransportError{Op: op, Err: fmt.Errorf("decode reply: %w", err)}
	}
	if out.Reply == nil {
		return "", &chat.TransportError{Op: op, Err: errMissingReply}
	}
	return *out.Reply, nil
}

// BuildCurlCommand renders the request Send would make, for --dry-run.
func (c *ChatClient) BuildCurlCommand(prompt string) (string, error) {
	req, err := c.newRequest(context.Background(), prompt)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return "", err
	}
	return buildCurlCommand(req.Method, req.URL.String(), body, req.Header), nil
}

func buildCurlCommand(method, url string, body []byte, headers http.Header) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(shellQuote(url))

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range headers.Values(k) {
			b.WriteString(" \\\n  -H ")
			b.WriteString(shellQuote(k + ": " + v))
		}
	}
	if len(body) > 0 {
		b.WriteString(" \\\n  --data-raw ")
		b.WriteString(shellQuote(string(body)))
	}
	return b.String()
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
