package importer

import "sync/atomic"

// Counters accumulates import progress. It is passed explicitly through the
// pipeline and is safe to read from a signal handler while workers run.
type Counters struct {
	conversationsImported atomic.Int64
	conversationsSkipped  atomic.Int64
	conversationsFailed   atomic.Int64
	messagesImported      atomic.Int64
	messagesSkipped       atomic.Int64
	messagesFailed        atomic.Int64
	messagesTruncated     atomic.Int64
	messagesEmptySkipped  atomic.Int64
	relationsImported     atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ConversationsImported int64
	// ConversationsSkipped counts conversations already present in the store
	// (resume path and duplicate-key races alike).
	ConversationsSkipped int64
	ConversationsFailed  int64
	MessagesImported     int64
	// MessagesSkipped counts duplicate-id rows, which are not errors.
	MessagesSkipped      int64
	MessagesFailed       int64
	MessagesTruncated    int64
	MessagesEmptySkipped int64
	RelationsImported    int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		ConversationsImported: c.conversationsImported.Load(),
		ConversationsSkipped:  c.conversationsSkipped.Load(),
		ConversationsFailed:   c.conversationsFailed.Load(),
		MessagesImported:      c.messagesImported.Load(),
		MessagesSkipped:       c.messagesSkipped.Load(),
		MessagesFailed:        c.messagesFailed.Load(),
		MessagesTruncated:     c.messagesTruncated.Load(),
		MessagesEmptySkipped:  c.messagesEmptySkipped.Load(),
		RelationsImported:     c.relationsImported.Load(),
	}
}
