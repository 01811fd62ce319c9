// Package llm talks to chat-completion servers. It hides the provider behind a
// two-call interface: list the models, send one chat request.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/duel-brain/internal/config"
)

// ErrNoModels is returned by discovery when the server lists nothing usable.
var ErrNoModels = errors.New("no models available")

// Roles used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Model is one entry from the server's model list.
type Model struct {
	ID string `json:"id"`
	// Chat is a best-effort guess that the model accepts chat requests.
	Chat bool `json:"chat"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single non-streaming completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
}

// Client is implemented by every provider.
type Client interface {
	ListModels(ctx context.Context) ([]Model, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// NewFromConfig builds the client named by cfg.AIProvider. An empty provider
// returns a nil client, which callers treat as offline only.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AITimeout), nil
	case "ollama":
		c, err := NewOllamaClient(cfg.AIBaseURL, cfg.AITimeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// PickModel returns the first chat-capable model, or the first model when
// none is flagged.
func PickModel(models []Model) (string, error) {
	if len(models) == 0 {
		return "", ErrNoModels
	}
	for _, m := range models {
		if m.Chat {
			return m.ID, nil
		}
	}
	return models[0].ID, nil
}
