package export

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ContentKind discriminates the variant shapes a message content field takes
// in the export. The variant is resolved exactly once, here, so the rest of
// the pipeline never type-switches on raw JSON.
type ContentKind int

const (
	// ContentEmpty means the field was absent, null, or carried nothing usable.
	ContentEmpty ContentKind = iota
	// ContentPlainText means the field was a bare string or a text-only object.
	ContentPlainText
	// ContentParts means the field carried a parts list (strings mixed with
	// asset-pointer style objects).
	ContentParts
)

// Content is the decoded form of a message's content field.
type Content struct {
	Kind        ContentKind
	ContentType string
	Text        string
	Parts       []any
}

// DecodeContent resolves the content variant from its raw JSON form.
// Unknown object shapes degrade to a single-part list holding the whole
// object, so nothing is silently dropped.
func DecodeContent(raw json.RawMessage) Content {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Content{Kind: ContentEmpty}
	}

	// Bare string content.
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			if s == "" {
				return Content{Kind: ContentEmpty}
			}
			return Content{Kind: ContentPlainText, Text: s}
		}
	}

	var probe struct {
		ContentType string `json:"content_type"`
		Parts       []any  `json:"parts"`
		Text        string `json:"text"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return Content{Kind: ContentEmpty}
	}

	switch {
	case len(probe.Parts) > 0:
		return Content{Kind: ContentParts, ContentType: probe.ContentType, Parts: probe.Parts}
	case probe.Text != "":
		return Content{Kind: ContentPlainText, ContentType: probe.ContentType, Text: probe.Text}
	case probe.ContentType != "":
		return Content{Kind: ContentEmpty, ContentType: probe.ContentType}
	}

	// Unrecognized object: keep it whole as a single part.
	var obj any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Content{Kind: ContentEmpty}
	}
	return Content{Kind: ContentParts, Parts: []any{obj}}
}

// JoinedText renders the content as a single text value. Parts are joined
// with newlines in source order; non-string parts are rendered as compact
// JSON so asset pointers stay human-readable and parseable.
func (c Content) JoinedText() string {
	switch c.Kind {
	case ContentPlainText:
		return c.Text
	case ContentParts:
		rendered := make([]string, 0, len(c.Parts))
		for _, p := range c.Parts {
			if s, ok := p.(string); ok {
				rendered = append(rendered, s)
				continue
			}
			b, err := json.Marshal(p)
			if err != nil {
				continue
			}
			rendered = append(rendered, string(b))
		}
		return strings.Join(rendered, "\n")
	default:
		return ""
	}
}

// RawJSON serializes the original parts list for lossless reconstruction.
// Plain-text content is wrapped in a one-element list, matching how it would
// have appeared as parts.
func (c Content) RawJSON() string {
	switch c.Kind {
	case ContentPlainText:
		b, err := json.Marshal([]any{c.Text})
		if err != nil {
			return "[]"
		}
		return string(b)
	case ContentParts:
		b, err := json.Marshal(c.Parts)
		if err != nil {
			return "[]"
		}
		return string(b)
	default:
		return "[]"
	}
}
