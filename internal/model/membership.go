package model

import "time"

type Membership struct {
	EventID  uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	User  *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
