package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

func newServer(t *testing.T, path string, handler func(body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		status, out := handler(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(out))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	srv := newServer(t, "/receive_user_prompt", func(body map[string]any) (int, string) {
		assert.Equal(t, "Schrauben für Trockenbau", body["prompt"])
		return http.StatusOK, `{"explanation": "Drywall screws", "items": [{"artikel_id": "C001"}], "requireApproval": true}`
	})

	resp, err := NewClient(srv.URL, time.Second).Search(context.Background(), "Schrauben für Trockenbau")
	require.NoError(t, err)

	assert.Equal(t, "Drywall screws", resp.Explanation)
	assert.JSONEq(t, `[{"artikel_id": "C001"}]`, string(resp.Items))
	assert.True(t, resp.ApprovalHint())
}

func TestSearch_MissingItems(t *testing.T) {
	srv := newServer(t, "/receive_user_prompt", func(map[string]any) (int, string) {
		return http.StatusOK, `{"explanation": "nothing"}`
	})

	_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "x")
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestSearch_BackendErrors(t *testing.T) {
	srv := newServer(t, "/receive_user_prompt", func(map[string]any) (int, string) {
		return http.StatusInternalServerError, `{"detail": "boom"}`
	})

	_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "x")
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)

	_, err = NewClient("http://127.0.0.1:1", 200*time.Millisecond).Search(context.Background(), "x")
	assert.ErrorIs(t, err, models.ErrBackendUnavailable)
}

func TestSearch_UndecodableBody(t *testing.T) {
	srv := newServer(t, "/receive_user_prompt", func(map[string]any) (int, string) {
		return http.StatusOK, `<html>`
	})

	_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "x")
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestAnalyzeImage(t *testing.T) {
	srv := newServer(t, "/analyze_image", func(body map[string]any) (int, string) {
		assert.Equal(t, "aGVsbG8=", body["image_base64"])
		assert.Equal(t, "image/png", body["media_type"])
		assert.Len(t, body["messages"], 1)
		return http.StatusOK, `{"type": "question", "content": "Which wall thickness?"}`
	})

	resp, err := NewClient(srv.URL, time.Second).AnalyzeImage(context.Background(), AnalyzeImageRequest{
		ImageBase64: "aGVsbG8=",
		MediaType:   "image/png",
		Messages:    []models.ChatMessage{{Role: "user", Content: "what do I need?"}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReplyQuestion, resp.Type)
	assert.Equal(t, "Which wall thickness?", resp.Text())
}

func TestAnalyzeImage_UnknownType(t *testing.T) {
	srv := newServer(t, "/analyze_image", func(map[string]any) (int, string) {
		return http.StatusOK, `{"type": "poem", "content": "roses"}`
	})

	_, err := NewClient(srv.URL, time.Second).AnalyzeImage(context.Background(), AnalyzeImageRequest{})
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestCleanVoiceInput(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "cleaned", response: `{"cleaned": "20 Dübel 8mm"}`, want: "20 Dübel 8mm"},
		{name: "empty falls back", response: `{"cleaned": ""}`, want: "ähm zwanzig dübel"},
		{name: "missing falls back", response: `{}`, want: "ähm zwanzig dübel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, "/clean_voice_input", func(body map[string]any) (int, string) {
				assert.Equal(t, "ähm zwanzig dübel", body["text"])
				return http.StatusOK, tt.response
			})

			got, err := NewClient(srv.URL, time.Second).CleanVoiceInput(context.Background(), "ähm zwanzig dübel")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
