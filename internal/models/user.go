package models

import (
	"time"
)

// Account status values
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusDisabled  = "disabled"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Bio          string
	Role         string // e.g., "user", "admin"
	Status       string // "active", "suspended", "disabled"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the editable profile fields; nil fields are left untouched
type ProfileUpdate struct {
	Name  *string
	Phone *string
	Bio   *string
}
