package model

import "time"

// AllocationHistoryEntry records one assignment mutation on a roster account.
// Entries are append-only; nothing ever updates or deletes them.
type AllocationHistoryEntry struct {
	ID            string    `json:"id"`
	AccountNumber int64     `json:"accountNumber"`
	Field         string    `json:"field"`
	OldValue      *string   `json:"oldValue"`
	NewValue      *string   `json:"newValue"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuditLogEntry records one privileged action, with a JSON details payload.
type AuditLogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}
