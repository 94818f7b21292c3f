package models

import "github.com/google/uuid"

// Viewer identifies who is reading or writing. The zero value is the anonymous viewer.
type Viewer struct {
	ID      string
	IsAdmin bool
}

// NewViewer treats anything that is not a well-formed id as anonymous.
func NewViewer(rawID string, isAdmin bool) Viewer {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Viewer{}
	}
	return Viewer{ID: id.String(), IsAdmin: isAdmin}
}

func (v Viewer) IsAnonymous() bool {
	return v.ID == ""
}

func (v Viewer) Is(userID string) bool {
	return !v.IsAnonymous() && v.ID == userID
}
