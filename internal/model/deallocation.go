package model

import "time"

// Deallocation request statuses.
const (
	RequestStatusPending  = "pending_approval"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// DeallocationRequest is a two-person-integrity change request: one admin
// requests that an allocated account be released, a different admin resolves it.
type DeallocationRequest struct {
	ID              string     `json:"id"`
	AccountNumber   int64      `json:"accountNumber"`
	RequestedBy     string     `json:"requestedBy"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	ResolvedBy      *string    `json:"resolvedBy,omitempty"`
	ResolutionNotes *string    `json:"resolutionNotes,omitempty"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}
