package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// Client exposes the recommendation backend operations used by the application.
type Client interface {
	Search(ctx context.Context, prompt string) (*SearchResponse, error)
	AnalyzeImage(ctx context.Context, req AnalyzeImageRequest) (*AnalyzeImageResponse, error)
	CleanVoiceInput(ctx context.Context, text string) (string, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{httpClient: restyClient}
}

// SearchResponse is the raw answer to a free-text prompt. Items is left undecoded for
// the catalog normalizer.
type SearchResponse struct {
	Explanation      string          `json:"explanation"`
	Items            json.RawMessage `json:"items"`
	RequireApproval  bool            `json:"requireApproval"`
	RequiresApproval bool            `json:"requires_approval"`
}

// ApprovalHint merges both spellings the backend has used for the approval flag.
func (r *SearchResponse) ApprovalHint() bool {
	return r.RequireApproval || r.RequiresApproval
}

// AnalyzeImageRequest carries the image and the conversation so far.
type AnalyzeImageRequest struct {
	ImageBase64 string               `json:"image_base64"`
	MediaType   string               `json:"media_type"`
	Messages    []models.ChatMessage `json:"messages"`
}

// AnalyzeImageResponse is a typed reply. Content is a string for question and error
// replies and an object with explanation and items for recommendations.
type AnalyzeImageResponse struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// Text returns Content as a plain string, or its raw form when it is not one.
func (r *AnalyzeImageResponse) Text() string {
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Search posts a free-text prompt to /receive_user_prompt.
func (c *APIClient) Search(ctx context.Context, prompt string) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.post(ctx, "/receive_user_prompt", map[string]string{"prompt": prompt}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return nil, fmt.Errorf("search response without items: %w", models.ErrMalformedResponse)
	}
	return &out, nil
}

// AnalyzeImage posts an image conversation to /analyze_image.
func (c *APIClient) AnalyzeImage(ctx context.Context, req AnalyzeImageRequest) (*AnalyzeImageResponse, error) {
	var out AnalyzeImageResponse
	if err := c.post(ctx, "/analyze_image", req, &out); err != nil {
		return nil, err
	}
	switch out.Type {
	case models.ReplyQuestion, models.ReplyRecommendations, models.ReplyError:
		return &out, nil
	default:
		return nil, fmt.Errorf("image reply type %q: %w", out.Type, models.ErrMalformedResponse)
	}
}

// CleanVoiceInput posts a raw transcript to /clean_voice_input. An empty answer
// falls back to the raw text.
func (c *APIClient) CleanVoiceInput(ctx context.Context, text string) (string, error) {
	var out struct {
		Cleaned string `json:"cleaned"`
	}
	if err := c.post(ctx, "/clean_voice_input", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Cleaned) == "" {
		return text, nil
	}
	return out.Cleaned, nil
}

// post sends body and decodes the response into out. Transport failures and error
// statuses are ErrBackendUnavailable; undecodable bodies are ErrMalformedResponse.
func (c *APIClient) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("call %s: %v: %w", path, err, models.ErrBackendUnavailable)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("call %s: status %d: %w", path, resp.StatusCode(), models.ErrBackendUnavailable)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", path, err, models.ErrMalformedResponse)
	}
	return nil
}
