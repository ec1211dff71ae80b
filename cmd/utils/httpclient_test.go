package utils

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLogBodyContent(t *testing.T) {
	tests := []struct {
		name     string
		body     io.ReadCloser
		content  string
		wantLog  string
		wantBody bool
	}{
		{name: "nil body", body: nil, wantLog: "<nil>"},
		{name: "empty body", body: io.NopCloser(bytes.NewReader(nil)), wantLog: "<empty>", wantBody: true},
		{
			name:     "JSON body",
			content:  `{"prompt":"Kan alma saat kaçta?"}`,
			wantLog:  `{"prompt":"Kan alma saat kaçta?"}`,
			wantBody: true,
		},
		{
			name:     "large body truncation",
			content:  strings.Repeat("a", 2000),
			wantLog:  "... (truncated)",
			wantBody: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := initTestLogger(t)
			body := tt.body
			if tt.content != "" {
				body = io.NopCloser(strings.NewReader(tt.content))
			}

			result := LogBodyContent(body, "test body")

			if !tt.wantBody {
				if result != nil {
					t.Fatalf("expected nil result")
				}
			} else {
				restored, err := io.ReadAll(result)
				if err != nil {
					t.Fatalf("read restored body: %v", err)
				}
				if string(restored) != tt.content {
					t.Errorf("restored body = %q, want %q", restored, tt.content)
				}
			}
			if logStr := readTestLog(t, path); !strings.Contains(logStr, tt.wantLog) {
				t.Errorf("log missing %q:\n%s", tt.wantLog, logStr)
			}
		})
	}
}

func TestLogHeaders(t *testing.T) {
	tests := []struct {
		name              string
		headers           http.Header
		expectRedacted    []string
		expectNotRedacted []string
		sensitiveValues   []string
	}{
		{
			name: "authorization",
			headers: http.Header{
				"Authorization": {"Bearer secret-token"},
				"Content-Type":  {"application/json"},
			},
			expectRedacted:    []string{"Authorization"},
			expectNotRedacted: []string{"Content-Type"},
			sensitiveValues:   []string{"secret-token"},
		},
		{
			name: "session and cookies",
			headers: http.Header{
				"Cookie":       {"session=abc123"},
				"X-Session-Id": {"0b4f1c4e-session"},
				"User-Agent":   {"tibbi/1.0.0"},
			},
			expectRedacted:    []string{"Cookie", "X-Session-Id"},
			expectNotRedacted: []string{"User-Agent"},
			sensitiveValues:   []string{"session=abc123", "0b4f1c4e-session"},
		},
		{
			name:    "empty headers",
			headers: http.Header{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := initTestLogger(t)
			LogHeaders("test", tt.headers)
			logStr := readTestLog(t, path)

			for _, h := range tt.expectRedacted {
				if !strings.Contains(logStr, http.CanonicalHeaderKey(h)+": [REDACTED]") {
					t.Errorf("header %q should be redacted:\n%s", h, logStr)
				}
			}
			for _, v := range tt.sensitiveValues {
				if strings.Contains(logStr, v) {
					t.Errorf("sensitive value %q leaked:\n%s", v, logStr)
				}
			}
			for _, h := range tt.expectNotRedacted {
				want := http.CanonicalHeaderKey(h) + ": " + tt.headers.Get(h)
				if !strings.Contains(logStr, want) {
					t.Errorf("expected %q in log:\n%s", want, logStr)
				}
			}
		})
	}
}

func TestPrettyServerError(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusBadGateway}
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"model offline"}`, "model offline"},
		{"detail object", `{"detail":{"message":"quota"}}`, "quota"},
		{"message", `{"message":"bad prompt"}`, "bad prompt"},
		{"error", `{"error":"boom"}`, "boom"},
		{"plain text", "upstream timed out\n", "upstream timed out"},
		{"empty body", "", "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrettyServerError(resp, []byte(tt.body)); got != tt.want {
				t.Errorf("PrettyServerError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerboseHTTPClient_PassesThrough(t *testing.T) {
	path := initTestLogger(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/chat", strings.NewReader(`{"prompt":"merhaba"}`))
	resp, err := (&VerboseHTTPClient{Inner: &DefaultHTTPClient{Timeout: 5 * time.Second}}).Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"prompt":"merhaba"}` {
		t.Errorf("body = %q", body)
	}
	logStr := readTestLog(t, path)
	for _, want := range []string{"HTTP POST " + srv.URL + "/chat", "-> 200 OK", "merhaba"} {
		if !strings.Contains(logStr, want) {
			t.Errorf("log missing %q:\n%s", want, logStr)
		}
	}
}

func TestSetHTTPClientForTest_Restores(t *testing.T) {
	orig := httpClient
	restore := SetHTTPClientForTest(&DefaultHTTPClient{Timeout: time.Second})
	if httpClient == orig {
		t.Fatal("client was not replaced")
	}
	restore()
	if httpClient != orig {
		t.Fatal("client was not restored")
	}
}
