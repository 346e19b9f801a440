package domain

// Identity is the authenticated participant bound to a connection.
// It never changes once the connection has been accepted.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func (i Identity) IsZero() bool {
	return i.ID == ""
}
