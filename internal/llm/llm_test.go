package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/duel-brain/internal/config"
)

func TestPickModel(t *testing.T) {
	_, err := PickModel(nil)
	assert.ErrorIs(t, err, ErrNoModels)

	id, err := PickModel([]Model{{ID: "text-embedding-3"}, {ID: "gpt-4o", Chat: true}})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", id)

	id, err = PickModel([]Model{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a", id, "falls back to the first model")
}

func TestOpenAIClient(t *testing.T) {
	var gotTemp float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			io.WriteString(w, `{"object":"list","data":[{"id":"text-embedding-nomic","object":"model"},{"id":"qwen2.5-7b-instruct","object":"model"}]}`)
		case "/v1/chat/completions":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			gotTemp, _ = body["temperature"].(float64)
			io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"move\":\"hold\"}"},"finish_reason":"stop"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1", "", time.Second)
	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.False(t, models[0].Chat)
	assert.True(t, models[1].Chat)

	out, err := c.Chat(context.Background(), ChatRequest{
		Model:       "qwen2.5-7b-instruct",
		Messages:    []Message{{Role: RoleSystem, Content: "fight"}, {Role: RoleUser, Content: "go"}},
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"move":"hold"}`, out)
	assert.InDelta(t, 0.5, gotTemp, 1e-6)
}

func TestOpenAIClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1", "", time.Second)
	_, err := c.Chat(context.Background(), ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.Error(t, err)
}

func TestOllamaClient(t *testing.T) {
	var gotStream any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/tags":
			io.WriteString(w, `{"models":[{"name":"nomic-embed-text:latest","model":"nomic-embed-text:latest","details":{"family":"nomic-bert"}},{"name":"llama3:latest","model":"llama3:latest","details":{"family":"llama"}}]}`)
		case "/api/chat":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			gotStream = body["stream"]
			io.WriteString(w, `{"model":"llama3:latest","message":{"role":"assistant","content":"{\"move\":\"advance\"}"},"done":true}`+"\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewOllamaClient(srv.URL+"/v1", time.Second)
	require.NoError(t, err)

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.False(t, models[0].Chat)
	assert.True(t, models[1].Chat)

	out, err := c.Chat(context.Background(), ChatRequest{Model: "llama3:latest", Messages: []Message{{Role: RoleUser, Content: "go"}}})
	require.NoError(t, err)
	assert.Equal(t, `{"move":"advance"}`, out)
	assert.Equal(t, false, gotStream)
}

func TestNewFromConfig(t *testing.T) {
	c, err := NewFromConfig(&config.Config{AITimeout: time.Second})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewFromConfig(&config.Config{AIProvider: "openai", AIBaseURL: "http://localhost:1234/v1", AITimeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewFromConfig(&config.Config{AIProvider: "ollama", AIBaseURL: "http://localhost:11434", AITimeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, c)

	_, err = NewFromConfig(&config.Config{AIProvider: "grpc"})
	assert.Error(t, err)
}
