package models

import "time"

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusInactive  ProjectStatus = "inactive"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCanceled  ProjectStatus = "canceled"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// ProjectStatuses lists every status in display order
var ProjectStatuses = []ProjectStatus{
	ProjectStatusActive,
	ProjectStatusInactive,
	ProjectStatusCompleted,
	ProjectStatusCanceled,
	ProjectStatusArchived,
}

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	OwnerID     string        `json:"owner_id"`
	Visibility  Visibility    `json:"visibility"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectInput holds the fields accepted when creating a project
type ProjectInput struct {
	Name        string `validate:"required,max=50"`
	Description string `validate:"min=20,max=100"`
	Visibility  string `validate:"required,oneof=private public"`
	Status      string `validate:"required,oneof=active inactive completed canceled archived"`
}

// ProjectPatch holds a partial update; nil fields are left untouched
type ProjectPatch struct {
	Name        *string `validate:"omitempty,max=50"`
	Description *string `validate:"omitempty,min=20,max=100"`
	Visibility  *string `validate:"omitempty,oneof=private public"`
	Status      *string `validate:"omitempty,oneof=active inactive completed canceled archived"`
}
