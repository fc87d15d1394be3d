package model

import "time"

type ActivityAction string

const (
	ActionUserRegistered  ActivityAction = "user.registered"
	ActionUserUpdated     ActivityAction = "user.updated"
	ActionUserDeleted     ActivityAction = "user.deleted"
	ActionUserSuspended   ActivityAction = "user.suspended"
	ActionUserReactivated ActivityAction = "user.reactivated"
	ActionEventCreated    ActivityAction = "event.created"
	ActionEventUpdated    ActivityAction = "event.updated"
	ActionEventDeleted    ActivityAction = "event.deleted"
	ActionEventJoined     ActivityAction = "event.joined"
	ActionEventLeft       ActivityAction = "event.left"
)

// Activity is one audit trail entry. Entries travel through the activity
// queue and are persisted by the worker.
type Activity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ActorID      uint           `gorm:"not null;index" json:"actor_id"`
	Action       ActivityAction `gorm:"size:32;not null;index" json:"action"`
	EventID      *uint          `gorm:"index" json:"event_id,omitempty"`
	TargetUserID *uint          `gorm:"index" json:"target_user_id,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}
