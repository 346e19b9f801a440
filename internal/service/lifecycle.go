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
	"github.com/samber/lo"
)

const failedToJoin = "Failed to join room"

// Join places the session in meetingID, replays recent chat, acknowledges the
// joiner and announces it to the rest of the meeting.
//
// Registry and group changes made before a persistence failure are kept.
func (s *RoomService) Join(ctx context.Context, sess *domain.Session, meetingID string) error {
	const op = "service.room.join"
	meetingID = strings.TrimSpace(meetingID)
	log := s.sessionLog(op, sess, meetingID)

	if meetingID == "" {
		return ErrMissingRoomID
	}

	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return ErrMeetingNotFound
		}
		log.Error("failed to load meeting", sl.Err(err))
		return persistenceError(failedToJoin, err)
	}
	if !meeting.IsActive {
		return ErrMeetingEnded
	}

	if current, ok := sess.RoomID(); ok && current != meetingID {
		s.Leave(sess, LeaveSwitch)
	}

	identityID := sess.Identity.ID
	group := hub.MeetingGroup(meetingID)

	s.presenceMu.Lock()
	if _, ended := s.ended[meetingID]; ended {
		s.presenceMu.Unlock()
		return ErrMeetingEnded
	}
	rejoin := s.hub.Contains(group, sess)
	alreadyPresent := s.hub.HasIdentity(group, identityID, sess.ID)
	sess.SetRoom(meetingID)
	s.hub.Join(group, sess)
	s.hub.Join(hub.UserGroup(identityID), sess)
	s.registry.Add(meetingID, identityID)
	members := s.registry.Members(meetingID)
	s.presenceMu.Unlock()

	role := domain.RoleFor(meeting, identityID)
	if err := s.participants.UpsertJoin(ctx, meetingID, identityID, role); err != nil {
		log.Error("failed to persist participant", sl.Err(err))
		return persistenceError(failedToJoin, err)
	}

	history, err := s.messages.Recent(ctx, meetingID, s.opts.HistoryLimit)
	if err != nil {
		log.Error("failed to load chat history", sl.Err(err))
		return persistenceError(failedToJoin, err)
	}

	sess.Enqueue(domain.Event{
		Type: domain.EventChatHistory,
		Payload: lo.Map(history, func(m *domain.Message, _ int) domain.ChatMessagePayload {
			return domain.ChatMessageFrom(m)
		}),
	})
	sess.Enqueue(domain.Event{
		Type: domain.EventRoomJoined,
		Payload: domain.RoomJoinedPayload{
			MeetingID:    meetingID,
			UserID:       identityID,
			Participants: members,
			ICEServers:   s.opts.ICEServers,
		},
	})

	if rejoin || alreadyPresent {
		log.Debug("identity already present, presence not announced", slog.Bool("rejoin", rejoin))
		return nil
	}

	s.hub.BroadcastExceptIdentity(group, domain.Event{
		Type: domain.EventUserJoined,
		Payload: domain.PresencePayload{
			UserID: identityID,
			Name:   sess.Identity.Name,
			Email:  sess.Identity.Email,
		},
	}, identityID)

	log.Info("joined room", slog.String("role", string(role)), slog.Int("participants", len(members)))
	return nil
}

// Leave takes the session out of its current meeting. It returns the meeting left,
// or false when the session was not in one. Calling it twice is harmless.
//
// The identity stays present while another of its sessions remains in the meeting.
func (s *RoomService) Leave(sess *domain.Session, reason LeaveReason) (string, bool) {
	const op = "service.room.leave"

	meetingID, ok := sess.ClearRoom()
	if !ok {
		return "", false
	}

	log := s.sessionLog(op, sess, meetingID).With(slog.String("reason", string(reason)))
	identityID := sess.Identity.ID
	group := hub.MeetingGroup(meetingID)

	s.presenceMu.Lock()
	s.hub.Leave(group, sess)
	stillPresent := s.hub.HasIdentity(group, identityID, "")
	removed := !stillPresent && s.registry.Remove(meetingID, identityID)
	leftAt := s.opts.Now()
	s.presenceMu.Unlock()

	if stillPresent {
		log.Debug("another session of the identity remains in the room")
		return meetingID, true
	}
	if !removed {
		// removed by the host or the meeting ended; that path already announced it
		log.Debug("identity no longer registered in the room")
		return meetingID, true
	}

	s.tasks.Go(op, func(ctx context.Context) error {
		return s.participants.MarkLeft(ctx, meetingID, identityID, leftAt)
	})

	s.hub.Broadcast(group, domain.Event{
		Type: domain.EventUserLeft,
		Payload: domain.PresencePayload{
			UserID: identityID,
			Name:   sess.Identity.Name,
		},
	}, "")

	log.Info("left room")
	return meetingID, true
}

// Disconnect runs the leave path and detaches the session from every delivery group.
func (s *RoomService) Disconnect(sess *domain.Session) {
	s.Leave(sess, LeaveDisconnect)
	s.hub.Drop(sess)
}
