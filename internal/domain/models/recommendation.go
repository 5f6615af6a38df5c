package models

import "github.com/shopspring/decimal"

// Recommendations is a normalized answer from the recommendation source.
type Recommendations struct {
	Explanation      string          `json:"explanation"`
	Items            []LineItem      `json:"items"`
	RequiresApproval bool            `json:"requires_approval"`
	EstimatedTotal   decimal.Decimal `json:"estimated_total"`
}

// ChatMessage is one turn of the image analysis conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply types returned by the image analysis endpoint.
const (
	ReplyQuestion        = "question"
	ReplyRecommendations = "recommendations"
	ReplyError           = "error"
)

// ImageChat is the visible state of a session's image conversation.
type ImageChat struct {
	MediaType       string           `json:"media_type,omitempty"`
	Messages        []ChatMessage    `json:"messages"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
}
