package model

import "time"

// DefaultTitle is used when the export carries no title for a conversation.
const DefaultTitle = "Untitled"

// Conversation is one imported conversation record. The ID is assigned by the
// export, not by us. Conversations are created once during import and never
// mutated afterwards except to attach a project.
type Conversation struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	ProjectID *int64  `json:"project_id,omitempty"`
	ModelSlug *string `json:"model_slug,omitempty"`
	// GizmoID is the export's external grouping key, when present.
	GizmoID *string `json:"gizmo_id,omitempty"`
	// CreateTime/UpdateTime come from the export as epoch seconds (possibly
	// fractional). Zero or absent source values are represented as nil, never
	// as the epoch.
	CreateTime *time.Time `json:"create_time,omitempty"`
	UpdateTime *time.Time `json:"update_time,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
