package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/hub"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

const removedByHost = "Removed by host"

func (s *RoomService) authorizeHost(ctx context.Context, log *slog.Logger, sess *domain.Session, meetingID, action string) (*domain.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, ErrMeetingNotFound
		}
		log.Error("failed to load meeting", sl.Err(err))
		return nil, persistenceError(internalErrorMessage, err)
	}
	if !meeting.IsHost(sess.Identity.ID) {
		log.Warn("host action refused", slog.String("action", action))
		return nil, notHost(action)
	}
	return meeting, nil
}

// RemoveUser forcibly takes targetID out of the meeting. Every connection of the
// target is notified and detached; the room hears user-removed instead of user-left.
func (s *RoomService) RemoveUser(ctx context.Context, sess *domain.Session, meetingID, targetID string) error {
	const op = "service.room.remove.user"
	meetingID = strings.TrimSpace(meetingID)
	targetID = strings.TrimSpace(targetID)
	log := s.sessionLog(op, sess, meetingID).With(slog.String("target_id", targetID))

	if meetingID == "" {
		return ErrMissingRoomID
	}
	if targetID == "" {
		return ErrMissingTarget
	}
	if _, err := s.authorizeHost(ctx, log, sess, meetingID, "remove users"); err != nil {
		return err
	}
	if targetID == sess.Identity.ID {
		return ErrSelfRemoval
	}

	group := hub.MeetingGroup(meetingID)
	notice := domain.Event{
		Type:    domain.EventRemovedFromMeeting,
		Payload: domain.RemovedNoticePayload{MeetingID: meetingID, Reason: removedByHost},
	}

	s.presenceMu.Lock()
	if !s.registry.Contains(meetingID, targetID) {
		s.presenceMu.Unlock()
		return ErrTargetNotMember
	}
	targets := s.hub.SessionsOf(group, targetID)
	s.fanOut(log, targets, func(target *domain.Session) {
		target.Enqueue(notice)
		s.hub.Leave(group, target)
		target.ClearRoomIf(meetingID)
	})
	s.registry.Remove(meetingID, targetID)
	leftAt := s.opts.Now()
	s.presenceMu.Unlock()

	s.tasks.Go(op, func(ctx context.Context) error {
		return s.participants.MarkLeft(ctx, meetingID, targetID, leftAt)
	})

	s.hub.Broadcast(group, domain.Event{
		Type:    domain.EventUserRemoved,
		Payload: domain.UserRemovedPayload{UserID: targetID, RemovedBy: sess.Identity.ID},
	}, "")

	log.Info("user removed", slog.Int("sessions", len(targets)))
	return nil
}

// EndMeeting deactivates the meeting, closes every open participant record and
// empties the room without per-session departure events.
func (s *RoomService) EndMeeting(ctx context.Context, sess *domain.Session, meetingID string) error {
	const op = "service.room.end.meeting"
	meetingID = strings.TrimSpace(meetingID)
	log := s.sessionLog(op, sess, meetingID)

	if meetingID == "" {
		return ErrMissingRoomID
	}
	if _, err := s.authorizeHost(ctx, log, sess, meetingID, "end the meeting"); err != nil {
		return err
	}

	if err := s.meetings.SetInactive(ctx, meetingID); err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return ErrMeetingNotFound
		}
		log.Error("failed to deactivate meeting", sl.Err(err))
		return persistenceError("Failed to end meeting", err)
	}

	closed, err := s.participants.MarkAllLeft(ctx, meetingID)
	if err != nil {
		log.Error("failed to close participant records", sl.Err(err))
	}

	group := hub.MeetingGroup(meetingID)
	s.hub.Broadcast(group, domain.Event{
		Type:    domain.EventMeetingEnded,
		Payload: domain.MeetingEndedPayload{MeetingID: meetingID, EndedBy: sess.Identity.ID},
	}, "")

	s.presenceMu.Lock()
	s.ended[meetingID] = struct{}{}
	sessions := s.hub.Sessions(group)
	s.fanOut(log, sessions, func(target *domain.Session) {
		s.hub.Leave(group, target)
		target.ClearRoomIf(meetingID)
	})
	removed := s.registry.Clear(meetingID)
	s.presenceMu.Unlock()

	log.Info("meeting ended",
		slog.Int("sessions", len(sessions)),
		slog.Int("participants", len(removed)),
		slog.Int("records_closed", closed),
	)
	return nil
}
