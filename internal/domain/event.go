package domain

import (
	"time"

	"github.com/pion/webrtc/v3"
)

// Client to server events.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
	EventRemoveUser  = "remove-user"
	EventEndMeeting  = "end-meeting"
)

// Server to client events.
const (
	EventRoomJoined         = "room-joined"
	EventRoomLeft           = "room-left"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventChatHistory        = "chat-history"
	EventReceiveMessage     = "receive-message"
	EventUserRemoved        = "user-removed"
	EventRemovedFromMeeting = "removed-from-meeting"
	EventMeetingEnded       = "meeting-ended"
	EventError              = "error"
)

// Event is one outbound frame: {"type": ..., "payload": ...}.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type RoomJoinedPayload struct {
	MeetingID    string             `json:"meetingId"`
	UserID       string             `json:"userId"`
	Participants []string           `json:"participants"`
	ICEServers   []webrtc.ICEServer `json:"iceServers,omitempty"`
}

type RoomLeftPayload struct {
	MeetingID string `json:"meetingId"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

type ChatMessagePayload struct {
	SenderID  string    `json:"senderId"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRemovedPayload struct {
	UserID    string `json:"userId"`
	RemovedBy string `json:"removedBy"`
}

type RemovedNoticePayload struct {
	MeetingID string `json:"meetingId"`
	Reason    string `json:"reason"`
}

type MeetingEndedPayload struct {
	MeetingID string `json:"meetingId"`
	EndedBy   string `json:"endedBy"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func ChatMessageFrom(m *Message) ChatMessagePayload {
	return ChatMessagePayload{
		SenderID:  m.SenderID,
		Name:      m.SenderName,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}
