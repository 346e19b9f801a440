package domain

import "encoding/json"

// SignalKind is one of the call-setup message kinds relayed between two identities.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

// PayloadKey is the field that carries the opaque payload on the wire.
func (k SignalKind) PayloadKey() string {
	switch k {
	case SignalICECandidate:
		return "candidate"
	default:
		return string(k)
	}
}

// InboundEvent is the client event name, e.g. "webrtc-offer".
func (k SignalKind) InboundEvent() string {
	return "webrtc-" + string(k)
}

// ReceivedEvent is the event name delivered to the target, e.g. "webrtc-offer-received".
func (k SignalKind) ReceivedEvent() string {
	return k.InboundEvent() + "-received"
}

// SignalEnvelope is never persisted; Payload is forwarded byte for byte.
type SignalEnvelope struct {
	Kind      SignalKind
	MeetingID string
	From      string
	To        string
	Payload   json.RawMessage
}

// Event renders the envelope as delivered to the target identity.
func (e SignalEnvelope) Event() Event {
	payload := map[string]any{
		"meetingId": e.MeetingID,
		"from":      e.From,
	}
	payload[e.Kind.PayloadKey()] = e.Payload
	return Event{Type: e.Kind.ReceivedEvent(), Payload: payload}
}
