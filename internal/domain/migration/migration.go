// Package migration describes the ledger of index changes applied to a store.
package migration

import "time"

// Action names a side-effecting change to a live index.
type Action string

// Ledger actions.
const (
	ActionCreated  Action = "created"
	ActionReplaced Action = "replaced"
	ActionDropped  Action = "dropped"
)

// Entry is one applied change.
type Entry struct {
	ID        string    `json:"id"`
	IndexName string    `json:"index_name"`
	Backend   string    `json:"backend"`
	Action    Action    `json:"action"`
	Checksum  string    `json:"checksum,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
}
