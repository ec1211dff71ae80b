package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// HTTPClient is the subset of *http.Client the commands depend on.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient builds an http.Client per request. A zero Timeout means
// none; cancellation then comes only from the request context.
type DefaultHTTPClient struct{ Timeout time.Duration }

func (c *DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return (&http.Client{Timeout: c.Timeout}).Do(req)
}

// httpClient has no timeout: a chat reply may take as long as the model
// needs and the kiosk keeps waiting.
var httpClient HTTPClient = &DefaultHTTPClient{}

// GetHTTPClient returns the logging client used for chat requests.
func GetHTTPClient() HTTPClient {
	return &VerboseHTTPClient{Inner: httpClient}
}

// GetHTTPClientWithTimeout returns a logging client with a deadline. Stats
// requests use it.
func GetHTTPClientWithTimeout(timeout time.Duration) HTTPClient {
	if _, isDefault := httpClient.(*DefaultHTTPClient); !isDefault {
		return &VerboseHTTPClient{Inner: httpClient}
	}
	return &VerboseHTTPClient{Inner: &DefaultHTTPClient{Timeout: timeout}}
}

// SetHTTPClientForTest swaps the underlying transport and returns a restore
// func.
func SetHTTPClientForTest(client HTTPClient) func() {
	prev := httpClient
	httpClient = client
	return func() { httpClient = prev }
}

// VerboseHTTPClient logs method, URL, headers and bodies of every exchange
// to the debug log.
type VerboseHTTPClient struct{ Inner HTTPClient }

func (v *VerboseHTTPClient) Do(req *http.Request) (*http.Response, error) {
	inner := v.Inner
	if inner == nil {
		inner = &DefaultHTTPClient{}
	}
	LogDebug(fmt.Sprintf("HTTP %s %s", req.Method, req.URL.String()))
	LogHeaders("request", req.Header)
	req.Body = LogBodyContent(req.Body, "request body")

	resp, err := inner.Do(req)
	if err != nil {
		LogDebug(fmt.Sprintf("  -> error: %v", err))
		return nil, err
	}
	LogDebug(fmt.Sprintf("  -> %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	LogHeaders("response", resp.Header)
	resp.Body = LogBodyContent(resp.Body, "response body")
	return resp, nil
}

// LogBodyContent logs body and returns a reader over the same bytes.
func LogBodyContent(body io.ReadCloser, label string) io.ReadCloser {
	if body == nil {
		LogDebug(fmt.Sprintf("  -> %s: <nil>", label))
		return nil
	}

	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		LogDebug(fmt.Sprintf("  -> %s: <error reading: %v>", label, err))
		return io.NopCloser(bytes.NewReader(nil))
	}
	if len(data) == 0 {
		LogDebug(fmt.Sprintf("  -> %s: <empty>", label))
		return io.NopCloser(bytes.NewReader(data))
	}

	const maxLogSize = 1024
	s := string(data)
	if len(s) > maxLogSize {
		s = s[:maxLogSize] + "... (truncated)"
	}
	LogDebug(fmt.Sprintf("  -> %s: %s", label, s))
	return io.NopCloser(bytes.NewReader(data))
}

var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-session-id":        {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"x-forwarded-for":     {},
	"x-real-ip":           {},
}

// LogHeaders writes headers in sorted order, redacting credential-bearing
// ones.
func LogHeaders(kind string, hdr http.Header) {
	if len(hdr) == 0 {
		return
	}
	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, sensitive := sensitiveHeaders[strings.ToLower(k)]
		for _, v := range hdr.Values(k) {
			if sensitive {
				v = "[REDACTED]"
			}
			LogDebug(fmt.Sprintf("  %s header: %s: %s", kind, k, v))
		}
	}
}

// PrettyServerError extracts a readable message from an error response.
// It understands {"detail": ...}, {"message": ...} and {"error": ...}.
func PrettyServerError(resp *http.Response, body []byte) string {
	var env struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		switch v := env.Detail.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
