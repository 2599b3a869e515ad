package export

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"chatbeto.app/archivist/internal/model"
)

// ErrMissingID is returned for conversation records carrying neither an id
// nor a conversation_id. Such records cannot be keyed and are skipped.
var ErrMissingID = errors.New("conversation record has no id")

// TruncationMarker is appended to any value cut at the storage limit, so
// truncated rows stay distinguishable from complete ones.
const TruncationMarker = "…[truncated]"

// titleMaxLen matches the conversations.title column width.
const titleMaxLen = 500

// Options selects the flattening policies.
type Options struct {
	// MaxContentLen caps content, raw-parts and children serializations.
	MaxContentLen int

	// SkipEmpty drops messages whose joined text is empty instead of
	// importing them with empty content.
	SkipEmpty bool
}

// Result is the normalized output for one conversation record.
type Result struct {
	Conversation model.Conversation
	Messages     []model.Message
	Relations    []model.MessageRelation

	// PlaceholderNodes counts mapping entries without a message payload.
	PlaceholderNodes int
	// EmptySkipped counts messages dropped by the SkipEmpty policy.
	EmptySkipped int
}

// Flatten normalizes one conversation record: it derives the conversation row
// and walks the record's mapping into a flat set of message rows. Node ids are
// visited in sorted order so repeated runs produce identical output regardless
// of source map ordering.
//
// A node whose parent id does not resolve inside the mapping is kept as-is;
// exports routinely reference root nodes that were never written out.
func Flatten(rec Conversation, opts Options) (Result, error) {
	id := rec.EffectiveID()
	if id == "" {
		return Result{}, ErrMissingID
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = model.DefaultTitle
	}
	if len(title) > titleMaxLen {
		title = cutUTF8(title, titleMaxLen)
	}

	res := Result{
		Conversation: model.Conversation{
			ID:         id,
			Title:      title,
			ModelSlug:  rec.ModelSlug,
			GizmoID:    rec.GizmoID,
			CreateTime: epochToTime(rec.CreateTime),
			UpdateTime: epochToTime(rec.UpdateTime),
		},
	}

	mapping := rec.EffectiveMapping()
	if len(mapping) == 0 {
		return res, nil
	}

	nodeIDs := make([]string, 0, len(mapping))
	for nodeID := range mapping {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	for _, nodeID := range nodeIDs {
		node := mapping[nodeID]
		if node.Message == nil {
			res.PlaceholderNodes++
			continue
		}

		msgID := nodeID
		if node.ID != "" {
			msgID = node.ID
		}

		role := model.RoleUnknown
		var authorName *string
		if node.Message.Author != nil {
			role = model.ParseRole(node.Message.Author.Role)
			authorName = node.Message.Author.Name
		}

		content := DecodeContent(node.Message.Content)
		text := content.JoinedText()
		if opts.SkipEmpty && strings.TrimSpace(text) == "" {
			res.EmptySkipped++
			continue
		}

		children := node.Children
		if children == nil {
			children = []string{}
		}
		childJSON, err := json.Marshal(children)
		if err != nil {
			childJSON = []byte("[]")
		}

		text, textCut := TruncateMarked(text, opts.MaxContentLen)
		rawParts, partsCut := TruncateMarked(content.RawJSON(), opts.MaxContentLen)
		childStr, childCut := TruncateMarked(string(childJSON), opts.MaxContentLen)

		res.Messages = append(res.Messages, model.Message{
			ID:             msgID,
			ConversationID: id,
			Role:           role,
			AuthorName:     authorName,
			Content:        text,
			ContentType:    content.ContentType,
			RawParts:       rawParts,
			ParentID:       node.Parent,
			ChildIDs:       childStr,
			CreateTime:     epochToTime(node.Message.CreateTime),
			Truncated:      textCut || partsCut || childCut,
		})

		if node.Parent != nil && *node.Parent != "" {
			res.Relations = append(res.Relations, model.MessageRelation{
				ParentID: *node.Parent,
				ChildID:  msgID,
			})
		}
	}

	return res, nil
}

// TruncateMarked cuts s to at most max bytes, replacing the tail with
// TruncationMarker. The cut never splits a UTF-8 sequence and is a no-op for
// values already within the limit, so re-running an import never re-truncates
// an already-truncated value differently.
func TruncateMarked(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	cut := max - len(TruncationMarker)
	if cut < 0 {
		cut = 0
	}
	return cutUTF8(s, cut) + TruncationMarker, true
}

func cutUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// epochToTime converts export epoch seconds to a timestamp. Zero and absent
// both mean "unknown" and map to nil, never to the epoch itself.
func epochToTime(sec *float64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	s := int64(*sec)
	ns := int64((*sec - float64(s)) * float64(time.Second))
	t := time.Unix(s, ns).UTC()
	return &t
}
