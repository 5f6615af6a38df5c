package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 1024
)

const cleanupPrompt = `You clean up dictated material requests from a construction site.
The user message is a raw speech transcript, usually German.
Remove filler words, false starts and repetitions. Write numbers as digits and keep units
(mm, m, Stk, kg). Keep every article, quantity and dimension that was said. Do not add
items, do not translate, do not explain.
Reply with the cleaned request only, as plain text on a single line.`

// Client cleans raw voice transcripts.
type Client interface {
	CleanTranscript(ctx context.Context, text string) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string, timeout time.Duration) Client {
	return newClient(apiKey, apiURL, timeout)
}

func newClient(apiKey, url string, timeout time.Duration) *anthropicClient {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(timeout)

	return &anthropicClient{httpClient: client, url: url}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// CleanTranscript asks the model for a cleaned transcript. An empty answer falls back
// to the raw text.
func (c *anthropicClient) CleanTranscript(ctx context.Context, text string) (string, error) {
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    cleanupPrompt,
		Messages:  []Message{{Role: "user", Content: text}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(c.url)
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %v: %w", err, models.ErrBackendUnavailable)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: status %d: %w", resp.StatusCode(), models.ErrBackendUnavailable)
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai: %w", models.ErrMalformedResponse)
	}

	cleaned := stripFences(respBody.Content[0].Text)
	if cleaned == "" {
		return text, nil
	}
	return cleaned, nil
}

// stripFences removes a markdown code block the model sometimes wraps answers in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.Contains(text[:nl], " ") {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
