package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/hub"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const failedToSend = "Failed to send message"

// Send persists a chat line and then broadcasts it to the whole meeting, sender included.
func (s *RoomService) Send(ctx context.Context, sess *domain.Session, meetingID, content string) error {
	const op = "service.room.send"
	meetingID = strings.TrimSpace(meetingID)
	log := s.sessionLog(op, sess, meetingID)

	if meetingID == "" {
		return ErrMissingRoomID
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.opts.MaxMessageLength {
		return ErrContentTooLong
	}
	if !s.registry.Contains(meetingID, sess.Identity.ID) {
		return ErrNotAMember
	}

	if _, err := s.meetings.FindByID(ctx, meetingID); err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return ErrMeetingNotFound
		}
		log.Error("failed to load meeting", sl.Err(err))
		return persistenceError(failedToSend, err)
	}

	msg, err := s.messages.Append(ctx, meetingID, sess.Identity, content)
	if err != nil {
		log.Error("failed to persist message", sl.Err(err))
		return persistenceError(failedToSend, err)
	}

	s.hub.Broadcast(hub.MeetingGroup(meetingID), domain.Event{
		Type:    domain.EventReceiveMessage,
		Payload: domain.ChatMessageFrom(msg),
	}, "")
	return nil
}
