package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chatbeto.app/archivist/internal/model"
)

type conversationStore struct {
	db DBTX
}

const conversationColumns = `id, title, project_id, model_slug, gizmo_id, create_time, update_time, created_at`

func (s *conversationStore) Insert(ctx context.Context, conv *model.Conversation) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO conversations (id, title, project_id, model_slug, gizmo_id, create_time, update_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		conv.ID, conv.Title, conv.ProjectID, conv.ModelSlug, conv.GizmoID, conv.CreateTime, conv.UpdateTime,
	)
	if err != nil {
		return false, fmt.Errorf("inserting conversation %s: %w", conv.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *conversationStore) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM conversations`)
	if err != nil {
		return nil, fmt.Errorf("listing conversation ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (s *conversationStore) AttachProject(ctx context.Context, conversationID string, projectID int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE conversations SET project_id = $1 WHERE id = $2`,
		projectID, conversationID,
	)
	if err != nil {
		return fmt.Errorf("attaching project to conversation %s: %w", conversationID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *conversationStore) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conv, nil
}

func (s *conversationStore) List(ctx context.Context, params ListConversationsParams) ([]model.Conversation, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	var (
		rows pgx.Rows
		err  error
	)
	if params.ProjectID != nil {
		rows, err = s.db.Query(ctx, `
			SELECT `+conversationColumns+` FROM conversations
			WHERE project_id = $1
			ORDER BY create_time DESC NULLS LAST
			LIMIT $2 OFFSET $3`,
			*params.ProjectID, limit, params.Offset)
	} else {
		rows, err = s.db.Query(ctx, `
			SELECT `+conversationColumns+` FROM conversations
			ORDER BY create_time DESC NULLS LAST
			LIMIT $1 OFFSET $2`,
			limit, params.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

func (s *conversationStore) ListUnassigned(ctx context.Context) ([]model.Conversation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE project_id IS NULL
		ORDER BY create_time DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("listing unassigned conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

func (s *conversationStore) Search(ctx context.Context, query string, limit int32) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT c.id, c.title, c.project_id, c.model_slug, c.gizmo_id, c.create_time, c.update_time, c.created_at
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.title ILIKE '%' || $1 || '%' OR m.content ILIKE '%' || $1 || '%'
		ORDER BY c.create_time DESC NULLS LAST
		LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching conversations: %w", err)
	}
	defer rows.Close()
	return scanConversations(rows)
}

func (s *conversationStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM conversations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting conversations: %w", err)
	}
	return n, nil
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var conv model.Conversation
	err := row.Scan(
		&conv.ID, &conv.Title, &conv.ProjectID, &conv.ModelSlug, &conv.GizmoID,
		&conv.CreateTime, &conv.UpdateTime, &conv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func scanConversations(rows pgx.Rows) ([]model.Conversation, error) {
	var out []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *conv)
	}
	return out, rows.Err()
}
