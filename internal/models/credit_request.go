package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit request status enums.
const (
	CreditRequestPending  = "pending"
	CreditRequestApproved = "approved"
	CreditRequestRejected = "rejected"
)

// MaxCreditRequestAmount is the platform cap on a single top-up request.
const MaxCreditRequestAmount int64 = 10000

// CreditRequest is a client's top-up request awaiting admin review.
// Mutable only while pending; the review stamps make it immutable.
type CreditRequest struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Amount          int64      `json:"amount"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
