package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/domain/models"
	"github.com/mamadbah2/hamma/internal/service/catalog"
	client "github.com/mamadbah2/hamma/pkg/clients/assistant"
)

// DefaultImagePrompt opens an image conversation when the user gives no message.
const DefaultImagePrompt = "Please analyze this image and identify what materials I need to order."

const defaultExplanation = "Here are my recommendations:"

// TranscriptCleaner cleans raw voice transcripts.
type TranscriptCleaner interface {
	CleanTranscript(ctx context.Context, text string) (string, error)
}

// ImageChatRequest is one user turn of an image conversation. A new image restarts the
// conversation; follow-ups carry only Message.
type ImageChatRequest struct {
	ImageBase64 string
	MediaType   string
	Message     string
}

// Service orchestrates the recommendation backend on behalf of procurement sessions.
type Service struct {
	client     client.Client
	normalizer *catalog.Normalizer
	cleaner    TranscriptCleaner
	store      *ConversationStore
	logger     *zap.Logger
}

// NewService wires the assistant service. cleaner is optional; without it voice
// cleanup goes to the backend.
func NewService(c client.Client, normalizer *catalog.Normalizer, cleaner TranscriptCleaner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = catalog.NewNormalizer(catalog.DefaultFieldMap, logger)
	}
	return &Service{
		client:     c,
		normalizer: normalizer,
		cleaner:    cleaner,
		store:      NewConversationStore(),
		logger:     logger,
	}
}

// Search asks the backend for recommendations and remembers them for the session.
func (s *Service) Search(ctx context.Context, sessionID, query string) (models.Recommendations, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Recommendations{}, fmt.Errorf("empty search query: %w", models.ErrInvalidInput)
	}

	resp, err := s.client.Search(ctx, query)
	if err != nil {
		s.logger.Warn("recommendation search failed", zap.String("session_id", sessionID), zap.Error(err))
		return models.Recommendations{}, err
	}

	items, err := s.normalizer.Normalize(resp.Items)
	if err != nil {
		return models.Recommendations{}, fmt.Errorf("normalize search items: %w", err)
	}

	recs := models.Recommendations{
		Explanation:      resp.Explanation,
		Items:            items,
		RequiresApproval: resp.ApprovalHint(),
		EstimatedTotal:   models.SumSubtotals(items),
	}

	s.store.update(sessionID, func(c *conversation) {
		stored := cloneRecommendations(recs)
		c.lastRecs = &stored
	})

	s.logger.Info("recommendations received",
		zap.String("session_id", sessionID),
		zap.Int("items", len(items)),
		zap.String("estimated_total", recs.EstimatedTotal.StringFixed(2)))
	return recs, nil
}

// LastRecommendations returns the most recent recommendations of the session, from a
// search or an image conversation.
func (s *Service) LastRecommendations(sessionID string) (models.Recommendations, bool) {
	var (
		out   models.Recommendations
		found bool
	)
	s.store.read(sessionID, func(c *conversation) {
		if c.lastRecs != nil {
			out, found = cloneRecommendations(*c.lastRecs), true
		}
	})
	return out, found
}

// ImageChat sends one user turn and records the assistant's reply. When the backend
// cannot be reached the failure is recorded in the conversation and returned.
func (s *Service) ImageChat(ctx context.Context, sessionID string, req ImageChatRequest) (models.ImageChat, error) {
	var (
		generation int
		call       client.AnalyzeImageRequest
		inputErr   error
	)

	s.store.update(sessionID, func(c *conversation) {
		if req.ImageBase64 != "" && req.ImageBase64 != c.imageBase64 {
			c.generation++
			c.imageBase64 = req.ImageBase64
			c.mediaType = req.MediaType
			c.messages = nil
			c.imageRecs = nil
			if strings.TrimSpace(req.Message) == "" {
				req.Message = DefaultImagePrompt
			}
		}
		switch {
		case c.imageBase64 == "":
			inputErr = fmt.Errorf("no image uploaded: %w", models.ErrInvalidInput)
			return
		case strings.TrimSpace(req.Message) == "":
			inputErr = fmt.Errorf("empty message: %w", models.ErrInvalidInput)
			return
		}

		c.messages = append(c.messages, models.ChatMessage{Role: "user", Content: req.Message})
		generation = c.generation
		call = client.AnalyzeImageRequest{
			ImageBase64: c.imageBase64,
			MediaType:   c.mediaType,
			Messages:    append([]models.ChatMessage{}, c.messages...),
		}
	})
	if inputErr != nil {
		return s.ImageChatState(sessionID), inputErr
	}

	resp, err := s.client.AnalyzeImage(ctx, call)
	if err != nil {
		s.logger.Warn("image analysis failed", zap.String("session_id", sessionID), zap.Error(err))
		s.reply(sessionID, generation, "Could not reach the assistant: "+describe(err), nil)
		return s.ImageChatState(sessionID), err
	}

	switch resp.Type {
	case models.ReplyQuestion:
		s.reply(sessionID, generation, resp.Text(), nil)
	case models.ReplyError:
		s.reply(sessionID, generation, "Error: "+resp.Text(), nil)
	case models.ReplyRecommendations:
		recs, err := s.decodeImageRecommendations(resp.Content)
		if err != nil {
			s.reply(sessionID, generation, "Error: "+describe(err), nil)
			return s.ImageChatState(sessionID), err
		}
		explanation := recs.Explanation
		if explanation == "" {
			explanation = defaultExplanation
		}
		s.reply(sessionID, generation, explanation, &recs)
	default:
		err := fmt.Errorf("unknown reply type %q: %w", resp.Type, models.ErrMalformedResponse)
		s.logger.Warn("image analysis returned an unknown reply", zap.String("session_id", sessionID), zap.Error(err))
		s.reply(sessionID, generation, "Error: "+describe(err), nil)
		return s.ImageChatState(sessionID), err
	}

	return s.ImageChatState(sessionID), nil
}

// ImageChatState returns the session's visible image conversation.
func (s *Service) ImageChatState(sessionID string) models.ImageChat {
	out := models.ImageChat{Messages: []models.ChatMessage{}}
	s.store.read(sessionID, func(c *conversation) {
		out = c.view()
	})
	return out
}

// ResetImageChat forgets the image and its conversation. Search results survive.
func (s *Service) ResetImageChat(sessionID string) {
	s.store.update(sessionID, func(c *conversation) {
		c.generation++
		c.imageBase64 = ""
		c.mediaType = ""
		c.messages = nil
		c.imageRecs = nil
	})
}

// Forget drops all assistant state of a closed session.
func (s *Service) Forget(sessionID string) {
	s.store.Clear(sessionID)
}

// CleanVoiceInput turns a raw transcript into a usable search query. An empty result
// falls back to the raw text.
func (s *Service) CleanVoiceInput(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty transcript: %w", models.ErrInvalidInput)
	}

	var (
		cleaned string
		err     error
	)
	if s.cleaner != nil {
		cleaned, err = s.cleaner.CleanTranscript(ctx, text)
	} else {
		cleaned, err = s.client.CleanVoiceInput(ctx, text)
	}
	if err != nil {
		s.logger.Warn("voice cleanup failed", zap.Error(err))
		return "", err
	}

	if strings.TrimSpace(cleaned) == "" {
		return text, nil
	}
	return cleaned, nil
}

func (s *Service) reply(sessionID string, generation int, content string, recs *models.Recommendations) {
	s.store.update(sessionID, func(c *conversation) {
		if c.generation != generation {
			return
		}
		c.messages = append(c.messages, models.ChatMessage{Role: "assistant", Content: content})
		if recs != nil {
			image, last := cloneRecommendations(*recs), cloneRecommendations(*recs)
			c.imageRecs = &image
			c.lastRecs = &last
		}
	})
}

func (s *Service) decodeImageRecommendations(content json.RawMessage) (models.Recommendations, error) {
	var body struct {
		Explanation string          `json:"explanation"`
		Items       json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(content, &body); err != nil {
		return models.Recommendations{}, fmt.Errorf("decode image recommendations: %v: %w", err, models.ErrMalformedResponse)
	}

	items, err := s.normalizer.Normalize(body.Items)
	if err != nil {
		return models.Recommendations{}, fmt.Errorf("normalize image recommendations: %w", err)
	}

	return models.Recommendations{
		Explanation:    body.Explanation,
		Items:          items,
		EstimatedTotal: models.SumSubtotals(items),
	}, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, models.ErrBackendUnavailable):
		return "backend unavailable"
	case errors.Is(err, models.ErrMalformedResponse):
		return "unexpected response"
	default:
		return err.Error()
	}
}
