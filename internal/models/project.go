package models

import (
	"time"

	"github.com/google/uuid"
)

// Project status enums.
const (
	ProjectStatusOpen       = "open"
	ProjectStatusAssigned   = "assigned"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

type Project struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	FreelancerID *uuid.UUID `json:"freelancer_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Area         string     `json:"area,omitempty"`
	Status       string     `json:"status"`
	Budget       int64      `json:"budget"`
	CreditsHeld  int64      `json:"credits_held"`
	IsPaid       bool       `json:"is_paid"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
