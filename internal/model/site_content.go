package model

import "time"

type SiteContent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:content_key;size:128;not null;uniqueIndex" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
