package model

import "time"

// Project is a user-facing grouping label attached to conversations. Projects
// are created lazily the first time a conversation classifies into a name the
// store has not seen; the unique name is the sole de-duplication key.
type Project struct {
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	// ExternalID correlates conversations exported under a shared external
	// grouping (the export's gizmo id).
	ExternalID *string `json:"external_id,omitempty"`
	ID         int64   `json:"id"`
	Starred    bool    `json:"starred"`
}
