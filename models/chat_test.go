package models

import (
	"strings"
	"testing"
)

func TestNewConversationDefaults(t *testing.T) {
	edital := "uuid-7"
	conv := NewConversation("c1", "user-1", &edital)

	if conv.Title != "Nova Conversa" {
		t.Errorf("title = %q, want \"Nova Conversa\"", conv.Title)
	}
	if conv.Messages == nil || len(conv.Messages) != 0 {
		t.Errorf("messages = %v, want empty non-nil slice", conv.Messages)
	}
	if conv.EditalUUID == nil || *conv.EditalUUID != "uuid-7" {
		t.Errorf("edital uuid = %v", conv.EditalUUID)
	}
}

func TestTitleFromFirstMessage(t *testing.T) {
	conv := NewConversation("c1", "user-1", nil)
	conv.Messages = append(conv.Messages, ChatMessage{Role: "user", Content: strings.Repeat("é", 60)})

	title := conv.TitleFromFirstMessage()
	if n := len([]rune(title)); n != 50 {
		t.Errorf("title runes = %d, want 50", n)
	}
}
