package assistant

import (
	"sync"

	"github.com/mamadbah2/hamma/internal/domain/models"
)

// conversation is the per-session assistant state. generation moves on every image
// reset so replies to an abandoned conversation can be dropped.
type conversation struct {
	generation  int
	imageBase64 string
	mediaType   string
	messages    []models.ChatMessage
	imageRecs   *models.Recommendations
	lastRecs    *models.Recommendations
}

func (c *conversation) view() models.ImageChat {
	out := models.ImageChat{
		MediaType: c.mediaType,
		Messages:  append([]models.ChatMessage{}, c.messages...),
	}
	if c.imageRecs != nil {
		recs := cloneRecommendations(*c.imageRecs)
		out.Recommendations = &recs
	}
	return out
}

// ConversationStore keeps assistant state per procurement session.
type ConversationStore struct {
	sessions map[string]*conversation
	mu       sync.RWMutex
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		sessions: make(map[string]*conversation),
	}
}

// update runs fn on the session's conversation under the write lock, creating it first
// when needed.
func (cs *ConversationStore) update(sessionID string, fn func(c *conversation)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c, ok := cs.sessions[sessionID]
	if !ok {
		c = &conversation{}
		cs.sessions[sessionID] = c
	}
	fn(c)
}

// read runs fn on the session's conversation under the read lock. fn is not called
// when the session has no state yet.
func (cs *ConversationStore) read(sessionID string, fn func(c *conversation)) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if c, ok := cs.sessions[sessionID]; ok {
		fn(c)
	}
}

// Clear removes a session's state.
func (cs *ConversationStore) Clear(sessionID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.sessions, sessionID)
}

func cloneRecommendations(r models.Recommendations) models.Recommendations {
	r.Items = append([]models.LineItem(nil), r.Items...)
	return r
}
