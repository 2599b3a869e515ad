// Package importer orchestrates the archive ingestion pipeline: read the
// export, flatten each conversation's message tree, and load the rows
// idempotently. Running the same archive any number of times leaves the
// store in the same state as running it once.
package importer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"chatbeto.app/archivist/common/logger"
	"chatbeto.app/archivist/internal/classifier"
	"chatbeto.app/archivist/internal/export"
	"chatbeto.app/archivist/internal/model"
	"chatbeto.app/archivist/internal/store"
)

// StoreProvider exposes the stores the pipeline writes to.
type StoreProvider interface {
	Conversations() store.ConversationStore
	Messages() store.MessageStore
	Projects() store.ProjectStore
	Relations() store.RelationStore
}

// Config selects the pipeline's policies. Zero values fall back to safe
// single-worker defaults.
type Config struct {
	BatchSize      int
	MaxContentLen  int
	Workers        int
	RatePerSec     float64
	SkipEmpty      bool
	WriteRelations bool
	DefaultProject string
}

// Importer runs the ingestion pipeline against a store bundle.
type Importer struct {
	stores   StoreProvider
	classify classifier.Classifier
	cfg      Config
	counters *Counters
	limiter  *rate.Limiter

	// projectCache de-duplicates lazy project creation across workers. The
	// store's unique constraint is the real guard; the cache just saves
	// round-trips.
	mu       sync.Mutex
	projects map[string]int64
}

func New(stores StoreProvider, classify classifier.Classifier, cfg Config) *Importer {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxContentLen < 1 {
		cfg.MaxContentLen = 65000
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	return &Importer{
		stores:   stores,
		classify: classify,
		cfg:      cfg,
		counters: &Counters{},
		limiter:  limiter,
		projects: make(map[string]int64),
	}
}

// Counters exposes the live counters, e.g. for an interrupt handler.
func (im *Importer) Counters() *Counters {
	return im.counters
}

// Run imports the archive at path. Per-conversation and per-message problems
// are counted and logged, never propagated; only fatal setup errors (archive
// unreadable, store unreachable) and context cancellation abort the run.
// The returned snapshot is valid even when err is non-nil.
func (im *Importer) Run(ctx context.Context, path string) (Snapshot, error) {
	existing, err := im.stores.Conversations().ListIDs(ctx)
	if err != nil {
		return im.counters.Snapshot(), err
	}
	slog.InfoContext(ctx, "resume state loaded", "existing_conversations", len(existing))

	recs := make(chan export.Conversation, im.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < im.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range recs {
				im.processConversation(ctx, rec, existing)
			}
		}()
	}

	total, readErr := export.ReadArchive(ctx, path, func(rec export.Conversation) error {
		select {
		case recs <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(recs)
	wg.Wait()

	if readErr != nil {
		return im.counters.Snapshot(), readErr
	}
	slog.InfoContext(ctx, "archive fully read", "records", total)
	return im.counters.Snapshot(), nil
}

// processConversation handles one record end to end. Every failure mode in
// here is recovered as close to the failing row as possible.
func (im *Importer) processConversation(ctx context.Context, rec export.Conversation, existing map[string]struct{}) {
	if im.limiter != nil {
		if err := im.limiter.Wait(ctx); err != nil {
			return
		}
	}

	convID := rec.EffectiveID()
	if convID == "" {
		im.counters.conversationsFailed.Add(1)
		slog.WarnContext(ctx, "conversation record has no id, skipped", "title", rec.Title)
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ConversationID: logger.Ptr(convID)})

	if _, ok := existing[convID]; ok {
		im.counters.conversationsSkipped.Add(1)
		return
	}

	res, err := export.Flatten(rec, export.Options{
		MaxContentLen: im.cfg.MaxContentLen,
		SkipEmpty:     im.cfg.SkipEmpty,
	})
	if err != nil {
		im.counters.conversationsFailed.Add(1)
		slog.WarnContext(ctx, "conversation flatten failed, skipped", "error", err)
		return
	}

	inserted, err := im.stores.Conversations().Insert(ctx, &res.Conversation)
	if err != nil {
		im.counters.conversationsFailed.Add(1)
		slog.WarnContext(ctx, "conversation insert failed, skipped", "error", err)
		return
	}
	if !inserted {
		// Lost a race with another run; the other side owns the rows.
		im.counters.conversationsSkipped.Add(1)
		return
	}

	im.attachProject(ctx, res.Conversation)
	im.loadMessages(ctx, res.Messages)
	im.counters.messagesEmptySkipped.Add(int64(res.EmptySkipped))

	if im.cfg.WriteRelations {
		im.loadRelations(ctx, res.Relations)
	}

	im.counters.conversationsImported.Add(1)
	slog.DebugContext(ctx, "conversation imported",
		"messages", len(res.Messages),
		"placeholder_nodes", res.PlaceholderNodes)
}

// attachProject classifies the title and links the lazily-created project.
// Failures leave the conversation unassigned; the classify job can pick it
// up later.
func (im *Importer) attachProject(ctx context.Context, conv model.Conversation) {
	name, err := im.classify.Classify(ctx, conv.Title)
	if err != nil {
		slog.WarnContext(ctx, "title classification failed, using default project", "error", err)
		name = im.cfg.DefaultProject
	}
	if name == "" {
		return
	}

	projectID, err := im.resolveProject(ctx, name)
	if err != nil {
		slog.WarnContext(ctx, "project resolution failed, conversation left unassigned",
			"project", name, "error", err)
		return
	}

	if err := im.stores.Conversations().AttachProject(ctx, conv.ID, projectID); err != nil {
		slog.WarnContext(ctx, "project attach failed", "project", name, "error", err)
	}
}

func (im *Importer) resolveProject(ctx context.Context, name string) (int64, error) {
	im.mu.Lock()
	if id, ok := im.projects[name]; ok {
		im.mu.Unlock()
		return id, nil
	}
	im.mu.Unlock()

	proj, err := im.stores.Projects().GetOrCreate(ctx, name)
	if err != nil {
		return 0, err
	}

	im.mu.Lock()
	im.projects[name] = proj.ID
	im.mu.Unlock()
	return proj.ID, nil
}

// loadMessages flushes rows in batches. A failed batch falls back to
// row-by-row insertion so one bad row never takes its siblings with it.
func (im *Importer) loadMessages(ctx context.Context, msgs []model.Message) {
	for _, msg := range msgs {
		if msg.Truncated {
			im.counters.messagesTruncated.Add(1)
		}
	}

	for start := 0; start < len(msgs); start += im.cfg.BatchSize {
		end := start + im.cfg.BatchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		batch := msgs[start:end]

		n, err := im.stores.Messages().InsertBatch(ctx, batch)
		if err == nil {
			im.counters.messagesImported.Add(n)
			im.counters.messagesSkipped.Add(int64(len(batch)) - n)
			continue
		}
		if errors.Is(err, context.Canceled) {
			return
		}

		slog.WarnContext(ctx, "message batch insert failed, retrying row by row",
			"batch_size", len(batch), "error", err)
		for _, msg := range batch {
			inserted, rowErr := im.stores.Messages().Insert(ctx, msg)
			switch {
			case rowErr != nil:
				im.counters.messagesFailed.Add(1)
				slog.WarnContext(ctx, "message insert failed, skipped",
					"message_id", msg.ID, "error", rowErr)
			case inserted:
				im.counters.messagesImported.Add(1)
			default:
				im.counters.messagesSkipped.Add(1)
			}
		}
	}
}

func (im *Importer) loadRelations(ctx context.Context, rels []model.MessageRelation) {
	for start := 0; start < len(rels); start += im.cfg.BatchSize {
		end := start + im.cfg.BatchSize
		if end > len(rels) {
			end = len(rels)
		}
		n, err := im.stores.Relations().InsertBatch(ctx, rels[start:end])
		if err != nil {
			slog.WarnContext(ctx, "relation batch insert failed, skipped", "error", err)
			continue
		}
		im.counters.relationsImported.Add(n)
	}
}
