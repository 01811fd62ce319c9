package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rcliao/duel-brain/internal/llm"
)

// Client mocks llm.Client
type Client struct {
	mock.Mock
}

func (m *Client) ListModels(ctx context.Context) ([]llm.Model, error) {
	args := m.Called(ctx)
	models, _ := args.Get(0).([]llm.Model)
	return models, args.Error(1)
}

func (m *Client) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
