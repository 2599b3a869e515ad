package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"chatbeto.app/archivist/internal/model"
)

type messageStore struct {
	db DBTX
}

const messageColumns = `id, conversation_id, author_role, author_name, content, content_type, raw_parts, parent_id, child_ids, create_time, truncated`

const insertMessageSQL = `
	INSERT INTO messages (` + messageColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING`

func (s *messageStore) Insert(ctx context.Context, msg model.Message) (bool, error) {
	tag, err := s.db.Exec(ctx, insertMessageSQL, messageArgs(msg)...)
	if err != nil {
		return false, fmt.Errorf("inserting message %s: %w", msg.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *messageStore) InsertBatch(ctx context.Context, msgs []model.Message) (int64, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	const cols = 11
	var sb strings.Builder
	sb.WriteString(`INSERT INTO messages (` + messageColumns + `) VALUES `)
	args := make([]any, 0, len(msgs)*cols)
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+j+1)
		}
		sb.WriteString(")")
		args = append(args, messageArgs(msg)...)
	}
	sb.WriteString(` ON CONFLICT (id) DO NOTHING`)

	tag, err := s.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("inserting message batch of %d: %w", len(msgs), err)
	}
	return tag.RowsAffected(), nil
}

func (s *messageStore) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY create_time ASC NULLS LAST, id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *messageStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

func messageArgs(msg model.Message) []any {
	return []any{
		msg.ID, msg.ConversationID, string(msg.Role), msg.AuthorName,
		msg.Content, msg.ContentType, msg.RawParts,
		msg.ParentID, msg.ChildIDs, msg.CreateTime, msg.Truncated,
	}
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var (
		msg  model.Message
		role string
	)
	err := row.Scan(
		&msg.ID, &msg.ConversationID, &role, &msg.AuthorName,
		&msg.Content, &msg.ContentType, &msg.RawParts,
		&msg.ParentID, &msg.ChildIDs, &msg.CreateTime, &msg.Truncated,
	)
	if err != nil {
		return model.Message{}, err
	}
	msg.Role = model.Role(role)
	return msg, nil
}
