package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		key:      "test-key",
		model:    "test-model",
		hc:       &http.Client{Timeout: 5 * time.Second},
	}
}

func TestStreamRelaysUpstreamBytes(t *testing.T) {
	chunks := []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"你好\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"网络不错\"}}]}\n\n",
		"data: [DONE]\n\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req request
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream || req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("request = %+v", req)
		}
		if !strings.Contains(req.Messages[1].Content, "203.0.113.7") {
			t.Errorf("profile missing ip: %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for _, c := range chunks {
			_, _ = w.Write([]byte(c))
			fl.Flush()
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	w := httptest.NewRecorder()
	err := c.Stream(context.Background(), `{"ip":"203.0.113.7"}`, w)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got := w.Body.String(); got != strings.Join(chunks, "") {
		t.Fatalf("relayed body = %q", got)
	}
}

func TestStreamUpstreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	w := httptest.NewRecorder()
	err := c.Stream(context.Background(), "{}", w)
	if err == nil {
		t.Fatalf("want error on upstream 429")
	}
	if w.Body.Len() != 0 {
		t.Fatalf("nothing should be relayed on pre-stream failure, got %q", w.Body.String())
	}
}

func TestNewFromEnvDisabledWithoutKey(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	if c := NewFromEnv(); c != nil {
		t.Fatalf("client should be nil without api key")
	}
}

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("AI_API_KEY", "k")
	t.Setenv("AI_ENDPOINT", "")
	t.Setenv("AI_MODEL", "")
	t.Setenv("AI_TIMEOUT_S", "")
	c := NewFromEnv()
	if c == nil {
		t.Fatalf("client nil with key set")
	}
	if c.endpoint != "https://api.openai.com/v1/chat/completions" || c.model != "gpt-4o-mini" {
		t.Fatalf("defaults = %q %q", c.endpoint, c.model)
	}
	if c.hc.Timeout != 60*time.Second {
		t.Fatalf("timeout = %v", c.hc.Timeout)
	}
}
