package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
)

const systemPrompt = `You are RaspAI, a friendly voice assistant running on a Raspberry Pi.
Answer briefly and conversationally: your replies are spoken aloud, so
avoid markdown, lists, and code. When a "Previous conversation" block is
included, use it only as context and respond to the last question.`

// Client generates conversational replies through the chat-completions
// API.
type Client struct {
	api   openai.Client
	model string
}

func NewClient(api openai.Client, model string) *Client {
	return &Client{api: api, model: model}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}

	return content, nil
}
