package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/hub"
)

// Relay forwards a call-setup envelope to every connection of env.To.
// The payload is opaque and passed through untouched.
func (s *RoomService) Relay(ctx context.Context, sess *domain.Session, env domain.SignalEnvelope) error {
	const op = "service.room.relay"
	env.MeetingID = strings.TrimSpace(env.MeetingID)
	env.To = strings.TrimSpace(env.To)
	log := s.sessionLog(op, sess, env.MeetingID)

	if env.MeetingID == "" {
		return ErrMissingRoomID
	}
	if env.To == "" {
		return ErrMissingTarget
	}
	if !s.registry.Contains(env.MeetingID, sess.Identity.ID) {
		return ErrNotAMember
	}
	if !s.registry.Contains(env.MeetingID, env.To) {
		return ErrTargetNotMember
	}

	env.From = sess.Identity.ID
	delivered := s.hub.Broadcast(hub.UserGroup(env.To), env.Event(), sess.ID)

	log.Debug("signal relayed",
		slog.String("kind", string(env.Kind)),
		slog.String("to", env.To),
		slog.Int("delivered", delivered),
	)
	return nil
}
