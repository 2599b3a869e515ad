package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"chatbeto.app/archivist/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DBTX is the subset of pgx a store needs. Both *pgxpool.Pool and pgx.Tx
// satisfy it, so the same store can run pooled or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConversationStore defines the contract for conversation data access.
type ConversationStore interface {
	// Insert writes the conversation if its id is not already present.
	// Returns false when the row already existed.
	Insert(ctx context.Context, conv *model.Conversation) (bool, error)
	// ListIDs returns the set of already-persisted conversation ids, used to
	// resume interrupted imports by skipping whole conversations up front.
	ListIDs(ctx context.Context) (map[string]struct{}, error)
	AttachProject(ctx context.Context, conversationID string, projectID int64) error
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	List(ctx context.Context, params ListConversationsParams) ([]model.Conversation, error)
	ListUnassigned(ctx context.Context) ([]model.Conversation, error)
	Search(ctx context.Context, query string, limit int32) ([]model.Conversation, error)
	Count(ctx context.Context) (int64, error)
}

// ListConversationsParams filters and pages conversation listings.
type ListConversationsParams struct {
	ProjectID *int64
	Limit     int32
	Offset    int32
}

// MessageStore defines the contract for message data access.
type MessageStore interface {
	// Insert writes a single message if absent. Returns false on duplicate.
	Insert(ctx context.Context, msg model.Message) (bool, error)
	// InsertBatch writes a batch in one round-trip and reports how many rows
	// were actually inserted; rows whose id already exists count as skipped,
	// not as errors.
	InsertBatch(ctx context.Context, msgs []model.Message) (int64, error)
	ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectStore defines the contract for project data access.
type ProjectStore interface {
	// GetOrCreate resolves a project by unique name, creating it lazily.
	// Safe under concurrent callers: creation races resolve through the
	// unique constraint, never as duplicate rows.
	GetOrCreate(ctx context.Context, name string) (*model.Project, error)
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	ListWithCounts(ctx context.Context) ([]ProjectWithCount, error)
}

// ProjectWithCount pairs a project with its conversation count.
type ProjectWithCount struct {
	Project       model.Project
	Conversations int64
}

// RelationStore defines the contract for message parent/child edge rows.
type RelationStore interface {
	InsertBatch(ctx context.Context, rels []model.MessageRelation) (int64, error)
}

// Stores bundles the concrete Postgres stores over one DBTX.
type Stores struct {
	conversations *conversationStore
	messages      *messageStore
	projects      *projectStore
	relations     *relationStore
}

// NewStores builds the store bundle. The DBTX can be a pool or a transaction.
func NewStores(db DBTX) *Stores {
	return &Stores{
		conversations: &conversationStore{db: db},
		messages:      &messageStore{db: db},
		projects:      &projectStore{db: db},
		relations:     &relationStore{db: db},
	}
}

func (s *Stores) Conversations() ConversationStore { return s.conversations }
func (s *Stores) Messages() MessageStore           { return s.messages }
func (s *Stores) Projects() ProjectStore           { return s.projects }
func (s *Stores) Relations() RelationStore         { return s.relations }
