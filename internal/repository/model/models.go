package model

import (
	"time"

	"github.com/google/uuid"
)

type Meeting struct {
	ID           string    `gorm:"size:64;primaryKey"`
	HostID       string    `gorm:"size:64;index;not null"`
	Title        string    `gorm:"size:255"`
	IsActive     bool      `gorm:"not null"`
	ScheduledFor *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

type Participant struct {
	ID        uint       `gorm:"primaryKey"`
	MeetingID string     `gorm:"size:64;not null;uniqueIndex:idx_participants_meeting_user"`
	UserID    string     `gorm:"size:64;not null;uniqueIndex:idx_participants_meeting_user"`
	Role      string     `gorm:"size:32;not null"`
	JoinedAt  time.Time  `gorm:"not null"`
	LeftAt    *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MeetingID  string    `gorm:"size:64;not null;index:idx_messages_meeting_created,priority:1"`
	SenderID   string    `gorm:"size:64;not null"`
	SenderName string    `gorm:"size:255"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null;index:idx_messages_meeting_created,priority:2"`
}
