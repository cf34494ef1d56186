package models

import "time"

// ChatMessage is one message in a match's chat room
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	MatchID   uint      `gorm:"not null;index:idx_chat_match_created,priority:1" json:"match_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_chat_match_created,priority:2" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) Response(loc *time.Location) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		MatchID:   m.MatchID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: NewLocalDateTime(m.CreatedAt.In(loc)),
	}
}
