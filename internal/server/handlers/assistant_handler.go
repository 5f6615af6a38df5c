package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/service/assistant"
)

// AssistantHandler exposes search, image conversation and voice cleanup.
type AssistantHandler struct {
	assistant *assistant.Service
	currency  string
	logger    *zap.Logger
}

// NewAssistantHandler constructs the HTTP handler adapter.
func NewAssistantHandler(svc *assistant.Service, currency string, logger *zap.Logger) *AssistantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantHandler{assistant: svc, currency: currency, logger: logger}
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

type imageChatRequest struct {
	ImageBase64 string `json:"image_base64"`
	MediaType   string `json:"media_type"`
	Message     string `json:"message"`
}

type voiceRequest struct {
	Text string `json:"text" binding:"required"`
}

// Search asks for recommendations for a free-text query.
func (h *AssistantHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	recs, err := h.assistant.Search(c.Request.Context(), sessionFrom(c).ID(), req.Query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newRecommendationsDTO(recs, h.currency))
}

// AddRecommendations puts every last recommendation in the cart at its recommended
// quantity.
func (h *AssistantHandler) AddRecommendations(c *gin.Context) {
	session := sessionFrom(c)

	recs, ok := h.assistant.LastRecommendations(session.ID())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_recommendations", "message": "search or analyze an image first"})
		return
	}

	cart, err := session.AddItems(recs.Items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newCartDTO(cart, h.currency))
}

// ImageChat sends one turn of the image conversation. A backend failure still returns
// the conversation, which then ends with the failure message.
func (h *AssistantHandler) ImageChat(c *gin.Context) {
	var req imageChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	chat, err := h.assistant.ImageChat(c.Request.Context(), sessionFrom(c).ID(), assistant.ImageChatRequest{
		ImageBase64: req.ImageBase64,
		MediaType:   req.MediaType,
		Message:     req.Message,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newImageChatDTO(chat, h.currency))
}

// GetImageChat returns the current image conversation.
func (h *AssistantHandler) GetImageChat(c *gin.Context) {
	c.JSON(http.StatusOK, newImageChatDTO(h.assistant.ImageChatState(sessionFrom(c).ID()), h.currency))
}

// ResetImageChat clears the image conversation.
func (h *AssistantHandler) ResetImageChat(c *gin.Context) {
	h.assistant.ResetImageChat(sessionFrom(c).ID())
	c.Status(http.StatusNoContent)
}

// CleanVoice cleans a dictated transcript.
func (h *AssistantHandler) CleanVoice(c *gin.Context) {
	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("text is required: %w", err))
		return
	}

	cleaned, err := h.assistant.CleanVoiceInput(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleaned": cleaned})
}
