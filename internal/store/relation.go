package store

import (
	"context"
	"fmt"
	"strings"

	"chatbeto.app/archivist/internal/model"
)

type relationStore struct {
	db DBTX
}

func (s *relationStore) InsertBatch(ctx context.Context, rels []model.MessageRelation) (int64, error) {
	if len(rels) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO message_relations (parent_id, child_id) VALUES `)
	args := make([]any, 0, len(rels)*2)
	for i, rel := range rels {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d)", i*2+1, i*2+2)
		args = append(args, rel.ParentID, rel.ChildID)
	}
	sb.WriteString(` ON CONFLICT (parent_id, child_id) DO NOTHING`)

	tag, err := s.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("inserting relation batch of %d: %w", len(rels), err)
	}
	return tag.RowsAffected(), nil
}
