package models

import "time"

// ChatMessage is one turn inside a conversation. Assistant messages carry
// the chunk ids used as retrieval sources.
type ChatMessage struct {
	Role      string    `bson:"role" json:"role"` // "user" or "assistant"
	Content   string    `bson:"content" json:"content"`
	Sources   []string  `bson:"sources,omitempty" json:"sources,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Conversation is a chat session, optionally pinned to a single edital.
type Conversation struct {
	ID         string        `bson:"_id" json:"id"`
	UserID     string        `bson:"user_id" json:"user_id"`
	Title      string        `bson:"title,omitempty" json:"title,omitempty"`
	EditalUUID *string       `bson:"edital_uuid,omitempty" json:"edital_uuid,omitempty"`
	Messages   []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updated_at"`
}

// NewConversation builds an empty conversation with the default title.
func NewConversation(id, userID string, editalUUID *string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:         id,
		UserID:     userID,
		Title:      "Nova Conversa",
		EditalUUID: editalUUID,
		Messages:   []ChatMessage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TitleFromFirstMessage derives a conversation title from the first user
// message, truncated to 50 characters.
func (c *Conversation) TitleFromFirstMessage() string {
	for _, m := range c.Messages {
		if m.Role == "user" {
			runes := []rune(m.Content)
			if len(runes) > 50 {
				return string(runes[:50])
			}
			return m.Content
		}
	}
	return ""
}

type CreateConversationRequest struct {
	EditalUUID string `json:"edital_uuid,omitempty"`
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
	// EditalUUID narrows retrieval to one edital for this message only,
	// overriding the conversation-level pin.
	EditalUUID string `json:"edital_uuid,omitempty"`
}

type ChatResponse struct {
	Message    string   `json:"message"`
	Sources    []string `json:"sources"`
	ChunksUsed int      `json:"chunks_used"`
}
