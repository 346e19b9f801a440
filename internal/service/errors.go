package service

import "errors"

// Kind classifies a failure reported back to the originating session.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindPersistence   Kind = "persistence"
)

// Error is a session-scoped failure. Message is safe to show to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrMissingRoomID   = &Error{Kind: KindValidation, Message: "Meeting ID is required"}
	ErrMissingTarget   = &Error{Kind: KindValidation, Message: "Target user is required"}
	ErrEmptyContent    = &Error{Kind: KindValidation, Message: "Message content is required"}
	ErrContentTooLong  = &Error{Kind: KindValidation, Message: "Message is too long"}
	ErrInvalidPayload  = &Error{Kind: KindValidation, Message: "Invalid payload"}
	ErrUnknownEvent    = &Error{Kind: KindValidation, Message: "Unknown event"}
	ErrMeetingEnded    = &Error{Kind: KindValidation, Message: "Meeting has ended"}
	ErrNotAMember      = &Error{Kind: KindAuthorization, Message: "You are not in this meeting"}
	ErrNotHost         = &Error{Kind: KindAuthorization, Message: "Only the host can perform this action"}
	ErrSelfRemoval     = &Error{Kind: KindAuthorization, Message: "You cannot remove yourself"}
	ErrTargetNotMember = &Error{Kind: KindNotFound, Message: "User is not in this meeting"}
	ErrMeetingNotFound = &Error{Kind: KindNotFound, Message: "Meeting not found"}
)

const internalErrorMessage = "Internal server error"

// notHost keeps errors.Is(err, ErrNotHost) while naming the refused action.
func notHost(action string) error {
	return &Error{Kind: KindAuthorization, Message: "Only the host can " + action, Err: ErrNotHost}
}

func persistenceError(message string, err error) error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// PublicMessage is the text sent to the client for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return internalErrorMessage
}

// KindOf reports the kind of err, or KindPersistence for unclassified failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}
