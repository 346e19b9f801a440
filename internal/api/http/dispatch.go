package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
)

type handlerFunc func(ctx context.Context, sess *domain.Session, payload json.RawMessage) error

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinRequest struct {
	MeetingID string `json:"meetingId" validate:"required"`
}

type leaveRequest struct {
	MeetingID string `json:"meetingId"`
}

type sendMessageRequest struct {
	MeetingID string `json:"meetingId" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

type removeUserRequest struct {
	MeetingID    string `json:"meetingId" validate:"required"`
	TargetUserID string `json:"targetUserId" validate:"required"`
}

type endMeetingRequest struct {
	MeetingID string `json:"meetingId" validate:"required"`
}

type signalRequest struct {
	MeetingID string          `json:"meetingId" validate:"required"`
	To        string          `json:"to" validate:"required"`
	Offer     json.RawMessage `json:"offer"`
	Answer    json.RawMessage `json:"answer"`
	Candidate json.RawMessage `json:"candidate"`
}

func (r *signalRequest) payload(kind domain.SignalKind) json.RawMessage {
	switch kind {
	case domain.SignalOffer:
		return r.Offer
	case domain.SignalAnswer:
		return r.Answer
	default:
		return r.Candidate
	}
}

// requiredErrors maps a missing field to the error reported to the client.
var requiredErrors = map[string]error{
	"MeetingID":    service.ErrMissingRoomID,
	"TargetUserID": service.ErrMissingTarget,
	"To":           service.ErrMissingTarget,
	"Content":      service.ErrEmptyContent,
}

func (c *SocketController) routes() map[string]handlerFunc {
	routes := map[string]handlerFunc{
		domain.EventJoinRoom:    c.handleJoin,
		domain.EventLeaveRoom:   c.handleLeave,
		domain.EventSendMessage: c.handleSendMessage,
		domain.EventRemoveUser:  c.handleRemoveUser,
		domain.EventEndMeeting:  c.handleEndMeeting,
	}
	for _, kind := range []domain.SignalKind{domain.SignalOffer, domain.SignalAnswer, domain.SignalICECandidate} {
		routes[kind.InboundEvent()] = c.signalHandler(kind)
	}
	return routes
}

// dispatch runs one client frame. Failures are reported to this session only;
// a panicking handler is contained here.
func (c *SocketController) dispatch(ctx context.Context, sess *domain.Session, data []byte, log *slog.Logger) {
	var frame inboundFrame
	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked", slog.String("type", frame.Type), slog.Any("panic", r))
			sess.Enqueue(domain.ErrorEvent(service.PublicMessage(nil)))
		}
	}()

	if err := json.Unmarshal(data, &frame); err != nil || frame.Type == "" {
		sess.Enqueue(domain.ErrorEvent(service.ErrInvalidPayload.Message))
		return
	}

	handler, ok := c.handlers[frame.Type]
	if !ok {
		log.Debug("unknown event", slog.String("type", frame.Type))
		sess.Enqueue(domain.ErrorEvent(service.ErrUnknownEvent.Message))
		return
	}

	if err := handler(ctx, sess, frame.Payload); err != nil {
		c.logHandlerError(log, frame.Type, err)
		sess.Enqueue(domain.ErrorEvent(service.PublicMessage(err)))
	}
}

func (c *SocketController) logHandlerError(log *slog.Logger, eventType string, err error) {
	attrs := []any{slog.String("type", eventType), sl.Err(err)}
	switch service.KindOf(err) {
	case service.KindValidation, service.KindNotFound:
		log.Debug("event rejected", attrs...)
	case service.KindAuthorization:
		log.Warn("event refused", attrs...)
	default:
		log.Error("event failed", attrs...)
	}
}

// decode unmarshals payload into dst and checks its validate tags. An absent
// payload decodes to the zero value so required fields report what is missing.
func (c *SocketController) decode(payload json.RawMessage, dst any) error {
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, dst); err != nil {
			return service.ErrInvalidPayload
		}
	}

	if err := c.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			if mapped, ok := requiredErrors[fieldErrs[0].StructField()]; ok {
				return mapped
			}
		}
		return service.ErrInvalidPayload
	}
	return nil
}

func (c *SocketController) handleJoin(ctx context.Context, sess *domain.Session, payload json.RawMessage) error {
	var req joinRequest
	if err := c.decode(payload, &req); err != nil {
		return err
	}
	return c.rooms.Join(ctx, sess, req.MeetingID)
}

func (c *SocketController) handleLeave(_ context.Context, sess *domain.Session, payload json.RawMessage) error {
	var req leaveRequest
	if err := c.decode(payload, &req); err != nil {
		return err
	}
	if current, ok := sess.RoomID(); !ok || (req.MeetingID != "" && req.MeetingID != current) {
		return service.ErrNotAMember
	}

	meetingID, ok := c.rooms.Leave(sess, service.LeaveVoluntary)
	if !ok {
		return service.ErrNotAMember
	}
	sess.Enqueue(domain.Event{
		Type:    domain.EventRoomLeft,
		Payload: domain.RoomLeftPayload{MeetingID: meetingID},
	})
	return nil
}

func (c *SocketController) handleSendMessage(ctx context.Context, sess *domain.Session, payload json.RawMessage) error {
	var req sendMessageRequest
	if err := c.decode(payload, &req); err != nil {
		return err
	}
	return c.rooms.Send(ctx, sess, req.MeetingID, req.Content)
}

func (c *SocketController) handleRemoveUser(ctx context.Context, sess *domain.Session, payload json.RawMessage) error {
	var req removeUserRequest
	if err := c.decode(payload, &req); err != nil {
		return err
	}
	return c.rooms.RemoveUser(ctx, sess, req.MeetingID, req.TargetUserID)
}

func (c *SocketController) handleEndMeeting(ctx context.Context, sess *domain.Session, payload json.RawMessage) error {
	var req endMeetingRequest
	if err := c.decode(payload, &req); err != nil {
		return err
	}
	return c.rooms.EndMeeting(ctx, sess, req.MeetingID)
}

func (c *SocketController) signalHandler(kind domain.SignalKind) handlerFunc {
	return func(ctx context.Context, sess *domain.Session, payload json.RawMessage) error {
		var req signalRequest
		if err := c.decode(payload, &req); err != nil {
			return err
		}
		body := req.payload(kind)
		if len(body) == 0 || string(body) == "null" {
			return service.ErrInvalidPayload
		}
		return c.rooms.Relay(ctx, sess, domain.SignalEnvelope{
			Kind:      kind,
			MeetingID: req.MeetingID,
			To:        req.To,
			Payload:   body,
		})
	}
}
