package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/logger"
)

func testConfig(baseURL string) config.ReasoningConfig {
	return config.ReasoningConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   500,
		Temperature: 0.2,
		MaxRetries:  2,
	}
}

func completionBody(msg Message) string {
	data, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{{"message": msg}},
	})
	return string(data)
}

func TestClient_Complete_Success(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(Message{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{{
				ID:   "call-1",
				Type: "function",
				Function: FunctionCall{
					Name:      "search_invoices",
					Arguments: `{"Invoice Number": "INV-1016"}`,
				},
			}},
		})))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	messages := []Message{SystemMessage("system"), UserMessage("Ticket ID: TKT-1001")}
	tools := []Tool{{Type: "function", Function: FunctionDef{Name: "search_invoices", Parameters: json.RawMessage(`{"type":"object"}`)}}}

	msg, err := client.Complete(context.Background(), messages, tools)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "search_invoices", msg.ToolCalls[0].Function.Name)

	assert.Equal(t, "test-model", captured["model"])
	assert.Equal(t, "auto", captured["tool_choice"])
	assert.Len(t, captured["messages"], 2)
	assert.Len(t, captured["tools"], 1)
}

func TestClient_Complete_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody(Message{Role: RoleAssistant, Content: "ok"})))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	msg, err := client.Complete(context.Background(), []Message{UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, 2, attempts)
}

func TestClient_Complete_PersistentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	_, err := client.Complete(context.Background(), []Message{UserMessage("hi")}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceFailed)
}

func TestClient_Complete_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionBody(Message{Role: RoleAssistant, Content: "late"})))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, []Message{UserMessage("hi")}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceTimeout)
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNoOpLogger())
	_, err := client.Complete(context.Background(), []Message{UserMessage("hi")}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceFailed)
}
