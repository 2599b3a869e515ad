package model

import "time"

// Role is the author role of a message, as carried by the export.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	// RoleUnknown is the default when the export carries no author object.
	RoleUnknown Role = "unknown"
)

// ParseRole maps an export role string onto a known Role, defaulting to
// RoleUnknown for anything unrecognized or empty.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// Message is one flattened node of a conversation's message mapping.
// Messages are created once during import and are immutable thereafter.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           Role   `json:"role"`
	AuthorName     *string
	// Content is the joined text rendering of the content parts; RawParts is
	// the lossless JSON serialization of the original parts list.
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	RawParts    string `json:"raw_parts"`
	// ParentID is stored verbatim from the export. It may reference a node
	// that was never exported; the relation is denormalized, not enforced.
	ParentID   *string    `json:"parent_id,omitempty"`
	ChildIDs   string     `json:"child_ids"` // JSON array of node ids
	CreateTime *time.Time `json:"create_time,omitempty"`
	// Truncated marks rows whose content was cut at the storage limit.
	Truncated bool `json:"truncated"`
}

// MessageRelation is one parent/child edge of the message tree, used when the
// schema keeps edges in their own table instead of a scalar parent column.
type MessageRelation struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}
