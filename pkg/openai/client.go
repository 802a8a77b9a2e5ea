package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

const requestTimeout = 15 * time.Second

// Client represents an OpenAI API client
type Client struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// New creates a new OpenAI client
func New(apiKey, apiBase, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.New("openai"),
	}
}

// GenerateChatMessage generates a chat message for a specific intent
func (c *Client) GenerateChatMessage(ctx context.Context, intent string, contextData map[string]interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	contextJSON, err := json.Marshal(contextData)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal context")
	}

	prompt := fmt.Sprintf(`
You are a friendly assistant bot for a church Telegram group. Generate a short, warm message in Ukrainian for the following intent: "%s".
Use the context provided below. Mention every name and the date exactly as given. Keep it concise and mobile-friendly.

Context:
%s

Return only the message text, no explanations or other text.
`, intent, string(contextJSON))

	c.logger.Debug("Generating chat message for intent: %s", intent)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.7,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "OpenAI API error")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI API")
	}

	msg := cleanMessage(resp.Choices[0].Message.Content)
	if msg == "" {
		return "", errors.New("empty response from OpenAI API")
	}
	return msg, nil
}

// cleanMessage strips markdown code fences and wrapping quotes the model
// sometimes adds around the text
func cleanMessage(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}

	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
