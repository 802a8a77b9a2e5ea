package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, content string, status int) (*httptest.Server, *string) {
	t.Helper()
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func TestGenerateChatMessage(t *testing.T) {
	srv, body := newTestServer(t, "```\nНагадування: Іван\n```", http.StatusOK)
	c := New("test-key", srv.URL+"/v1", "test-model")

	msg, err := c.GenerateChatMessage(context.Background(), "reminder", map[string]interface{}{
		"date": "04.05.2025",
	})
	require.NoError(t, err)
	assert.Equal(t, "Нагадування: Іван", msg)
	assert.Contains(t, *body, "test-model")
	assert.Contains(t, *body, "04.05.2025")
}

func TestGenerateChatMessageAPIError(t *testing.T) {
	srv, _ := newTestServer(t, "", http.StatusInternalServerError)
	c := New("test-key", srv.URL+"/v1", "test-model")

	_, err := c.GenerateChatMessage(context.Background(), "reminder", nil)
	assert.Error(t, err)
}

func TestCleanMessage(t *testing.T) {
	assert.Equal(t, "hi", cleanMessage("  \"hi\" "))
	assert.Equal(t, "hi", cleanMessage("```text\nhi\n```"))
	assert.Equal(t, "", cleanMessage("   "))
}
