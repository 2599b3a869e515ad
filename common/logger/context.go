package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so import internals never
// have to repeat the conversation they are working on.
type LogFields struct {
	RunID          *string // Import run ID
	ConversationID *string // Export conversation ID being processed
	MessageID      *string // Export message node ID
	ProjectID      *int64  // Resolved project ID
	Component      string  // Component name (e.g. "archivist.importer")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, incoming LogFields) LogFields {
	result := existing

	if incoming.RunID != nil {
		result.RunID = incoming.RunID
	}
	if incoming.ConversationID != nil {
		result.ConversationID = incoming.ConversationID
	}
	if incoming.MessageID != nil {
		result.MessageID = incoming.MessageID
	}
	if incoming.ProjectID != nil {
		result.ProjectID = incoming.ProjectID
	}
	if incoming.Component != "" {
		result.Component = incoming.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like message content.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
