package domain

import "time"

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// RoleFor derives the participant role once, at join time.
func RoleFor(meeting *Meeting, userID string) Role {
	if meeting.IsHost(userID) {
		return RoleHost
	}
	return RoleParticipant
}

// ParticipantRecord is the persisted history of one user in one meeting.
// LeftAt is nil while the current departure episode is open.
type ParticipantRecord struct {
	MeetingID string
	UserID    string
	Role      Role
	JoinedAt  time.Time
	LeftAt    *time.Time
}

func (p *ParticipantRecord) Present() bool {
	return p.LeftAt == nil
}
