package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is an append-only chat line of a meeting.
type Message struct {
	ID         uuid.UUID
	MeetingID  string
	SenderID   string
	SenderName string
	Content    string
	CreatedAt  time.Time
}

func NewMessage(meetingID string, sender Identity, content string) *Message {
	return &Message{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}
