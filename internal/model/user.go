package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleRegular Role = "regular"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts the two known roles and reports false for anything else.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleRegular:
		return RoleRegular, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

type User struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Email               string     `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash        string     `gorm:"size:255;not null" json:"-"`
	DisplayName         string     `gorm:"size:64;not null" json:"display_name"`
	ProfilePhotoURL     *string    `gorm:"size:512" json:"profile_photo_url"`
	Role                Role       `gorm:"size:16;not null;default:regular;index" json:"role"`
	IsActive            bool       `gorm:"not null;default:true" json:"is_active"`
	BirthDate           *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Gender              *string    `gorm:"size:32" json:"gender,omitempty"`
	Interests           []string   `gorm:"serializer:json" json:"interests"`
	OnboardingCompleted bool       `gorm:"not null;default:false" json:"onboarding_completed"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Column names accepted by UserStore.Update.
const (
	UserColumnEmail               = "email"
	UserColumnPasswordHash        = "password_hash"
	UserColumnDisplayName         = "display_name"
	UserColumnProfilePhotoURL     = "profile_photo_url"
	UserColumnRole                = "role"
	UserColumnIsActive            = "is_active"
	UserColumnBirthDate           = "birth_date"
	UserColumnGender              = "gender"
	UserColumnInterests           = "interests"
	UserColumnOnboardingCompleted = "onboarding_completed"
)

func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, IsActive: u.IsActive}
}

// Principal is the authenticated caller as seen by policy checks.
type Principal struct {
	ID       uint `json:"id"`
	Role     Role `json:"role"`
	IsActive bool `json:"is_active"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
