package domain

import (
	"Grocery-Receipt-Tracker/entities"
)

// Owner is the tagged ownership value of a receipt or insight: either an
// authenticated user or an anonymous temp session, never both or neither.
type Owner struct {
	Type string
	ID   string
}

func UserOwner(userID string) Owner {
	return Owner{Type: entities.OwnerTypeUser, ID: userID}
}

func SessionOwner(sessionID string) Owner {
	return Owner{Type: entities.OwnerTypeSession, ID: sessionID}
}

func (o Owner) IsUser() bool {
	return o.Type == entities.OwnerTypeUser
}

func (o Owner) IsSession() bool {
	return o.Type == entities.OwnerTypeSession
}
