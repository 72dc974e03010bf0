// Package llm wraps the OpenAI-compatible chat completions and embeddings
// APIs. It works against any server speaking that protocol (OpenAI,
// llama.cpp, vLLM, Ollama).
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Client is a client for the chat completions API.
type Client struct {
	Model  string
	client *openai.Client
}

// NewClient creates a chat client against an OpenAI-compatible endpoint.
// baseURL should include the version prefix, e.g. "http://localhost:8080/v1".
func NewClient(baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		Model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Chat sends a chat completion request and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamChat sends a streaming chat completion request and calls the
// callback once per content delta. A callback error aborts the stream.
func (c *Client) StreamChat(ctx context.Context, messages []Message, callback func(chunk string) error) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to open chat stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		if err := callback(chunk); err != nil {
			return fmt.Errorf("callback error: %w", err)
		}
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
