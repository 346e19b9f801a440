package domain

import "time"

// Meeting is the persisted meeting as seen by the room core.
type Meeting struct {
	ID           string
	HostID       string
	Title        string
	IsActive     bool
	ScheduledFor time.Time
	CreatedAt    time.Time
}

func (m *Meeting) IsHost(userID string) bool {
	return m != nil && userID != "" && m.HostID == userID
}
