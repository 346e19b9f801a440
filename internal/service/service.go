package service

import (
	"context"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

type LeaveReason string

const (
	LeaveVoluntary  LeaveReason = "voluntary"
	LeaveDisconnect LeaveReason = "disconnect"
	LeaveSwitch     LeaveReason = "switch"
)

type RoomLifecycle interface {
	Join(ctx context.Context, sess *domain.Session, meetingID string) error
	Leave(sess *domain.Session, reason LeaveReason) (string, bool)
	Disconnect(sess *domain.Session)
}

type SignalRelay interface {
	Relay(ctx context.Context, sess *domain.Session, env domain.SignalEnvelope) error
}

type ChatService interface {
	Send(ctx context.Context, sess *domain.Session, meetingID, content string) error
}

type HostControl interface {
	RemoveUser(ctx context.Context, sess *domain.Session, meetingID, targetID string) error
	EndMeeting(ctx context.Context, sess *domain.Session, meetingID string) error
}

type RoomSummary struct {
	MeetingID    string `json:"meetingId"`
	Participants int    `json:"participants"`
}

type PresenceReader interface {
	ActiveRooms() []RoomSummary
	Participants(meetingID string) []string
}

// RoomInteractor is everything the transport needs from the room core.
type RoomInteractor interface {
	RoomLifecycle
	SignalRelay
	ChatService
	HostControl
	PresenceReader
}
