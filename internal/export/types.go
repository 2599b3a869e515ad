package export

import "encoding/json"

// Conversation is one raw conversation record as it appears in the export
// archive. Only the fields the pipeline consumes are decoded.
type Conversation struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Title          string          `json:"title"`
	CreateTime     *float64        `json:"create_time"`
	UpdateTime     *float64        `json:"update_time"`
	GizmoID        *string         `json:"gizmo_id"`
	ModelSlug      *string         `json:"default_model_slug"`
	Mapping        map[string]Node `json:"mapping"`

	// Some export generations nest the mapping one level down.
	Template *Template `json:"conversation_template,omitempty"`
}

// Template carries the nested mapping used by gizmo-style exports.
type Template struct {
	Mapping map[string]Node `json:"mapping"`
}

// EffectiveID returns the conversation identifier, preferring the explicit
// conversation_id field. Empty when the record carries neither.
func (c Conversation) EffectiveID() string {
	if c.ConversationID != "" {
		return c.ConversationID
	}
	return c.ID
}

// EffectiveMapping returns the message mapping, looking through the template
// nesting when the top-level mapping is absent.
func (c Conversation) EffectiveMapping() map[string]Node {
	if len(c.Mapping) > 0 {
		return c.Mapping
	}
	if c.Template != nil {
		return c.Template.Mapping
	}
	return nil
}

// Node is one entry in a conversation's mapping. Nodes without a message
// payload are structural placeholders.
type Node struct {
	ID       string       `json:"id"`
	Parent   *string      `json:"parent"`
	Children []string     `json:"children"`
	Message  *NodeMessage `json:"message"`
}

// NodeMessage is the embedded message payload of a mapping node.
type NodeMessage struct {
	Author     *Author         `json:"author"`
	Content    json.RawMessage `json:"content"`
	CreateTime *float64        `json:"create_time"`
}

type Author struct {
	Role string  `json:"role"`
	Name *string `json:"name"`
}
