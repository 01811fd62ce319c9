package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaClient uses the native Ollama API.
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates a client for baseURL, e.g. http://localhost:11434.
// A trailing /v1 is stripped so OpenAI-style URLs work too.
func NewOllamaClient(baseURL string, timeout time.Duration) (*OllamaClient, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url %q: %w", baseURL, err)
	}
	return &OllamaClient{client: api.NewClient(u, &http.Client{Timeout: timeout})}, nil
}

func (c *OllamaClient) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		out = append(out, Model{ID: m.Name, Chat: ollamaChatCapable(m)})
	}
	return out, nil
}

func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	msgs := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}
	stream := false
	var content strings.Builder
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": req.Temperature},
	}, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return content.String(), nil
}

func ollamaChatCapable(m api.ListModelResponse) bool {
	if strings.Contains(strings.ToLower(m.Name), "embed") {
		return false
	}
	families := append([]string{m.Details.Family}, m.Details.Families...)
	for _, f := range families {
		if strings.Contains(strings.ToLower(f), "bert") {
			return false
		}
	}
	return true
}
