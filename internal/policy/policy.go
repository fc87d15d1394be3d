// Package policy holds the authorization predicates used by the services.
// Every mutating operation consults one of these before touching storage.
package policy

import "eventhub/internal/model"

// CanEditEvent reports whether actor may update or delete the event.
func CanEditEvent(actor model.Principal, event *model.Event) bool {
	if event == nil || actor.ID == 0 {
		return false
	}
	return actor.IsAdmin() || event.OwnerID == actor.ID
}

// CanDeleteUser reports whether actor may delete the account targetID.
func CanDeleteUser(actor model.Principal, targetID uint) bool {
	if actor.ID == 0 || targetID == 0 {
		return false
	}
	return actor.IsAdmin() || actor.ID == targetID
}

func CanModerate(actor model.Principal) bool {
	return actor.ID != 0 && actor.IsAdmin()
}
