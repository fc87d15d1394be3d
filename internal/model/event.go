package model

import "time"

type Event struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null;index" json:"title"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	OwnerID         uint      `gorm:"not null;index" json:"owner_id"`
	ImageURL        *string   `gorm:"size:512" json:"image_url"`
	StartsAt        time.Time `gorm:"not null;index" json:"starts_at"`
	Location        string    `gorm:"size:255;not null;default:''" json:"location"`
	MaxParticipants *int      `json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// Column names accepted by EventStore.Update.
const (
	EventColumnTitle           = "title"
	EventColumnDescription     = "description"
	EventColumnLocation        = "location"
	EventColumnStartsAt        = "starts_at"
	EventColumnMaxParticipants = "max_participants"
	EventColumnImageURL        = "image_url"
)

// EventFilter narrows ListEvents. Zero values mean "no constraint"; a zero
// Limit means unbounded.
type EventFilter struct {
	From          *time.Time
	To            *time.Time
	Location      string
	OwnerID       uint
	ParticipantID uint
	Offset        int
	Limit         int
}
