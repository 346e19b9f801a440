//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
)

var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

type MeetingStore interface {
	FindByID(ctx context.Context, meetingID string) (*domain.Meeting, error)
	SetInactive(ctx context.Context, meetingID string) error
}

type ParticipantStore interface {
	UpsertJoin(ctx context.Context, meetingID, userID string, role domain.Role) error
	// MarkLeft closes the record at the given departure time. Records that are
	// already closed, or were joined after at, are left untouched.
	MarkLeft(ctx context.Context, meetingID, userID string, at time.Time) error
	MarkAllLeft(ctx context.Context, meetingID string) (int, error)
}

type MessageStore interface {
	Append(ctx context.Context, meetingID string, sender domain.Identity, content string) (*domain.Message, error)
	// Recent returns at most limit messages of the meeting, oldest first.
	Recent(ctx context.Context, meetingID string, limit int) ([]*domain.Message, error)
}
