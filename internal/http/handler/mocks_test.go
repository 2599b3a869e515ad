package handler_test

import (
	"context"

	"chatbeto.app/archivist/internal/model"
	"chatbeto.app/archivist/internal/store"
)

type mockConversationStore struct {
	getByIDFn func(ctx context.Context, id string) (*model.Conversation, error)
	listFn    func(ctx context.Context, params store.ListConversationsParams) ([]model.Conversation, error)
	searchFn  func(ctx context.Context, query string, limit int32) ([]model.Conversation, error)
	countFn   func(ctx context.Context) (int64, error)
}

func (m *mockConversationStore) Insert(context.Context, *model.Conversation) (bool, error) {
	return false, nil
}

func (m *mockConversationStore) ListIDs(context.Context) (map[string]struct{}, error) {
	return nil, nil
}

func (m *mockConversationStore) AttachProject(context.Context, string, int64) error {
	return nil
}

func (m *mockConversationStore) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockConversationStore) List(ctx context.Context, params store.ListConversationsParams) ([]model.Conversation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return nil, nil
}

func (m *mockConversationStore) ListUnassigned(context.Context) ([]model.Conversation, error) {
	return nil, nil
}

func (m *mockConversationStore) Search(ctx context.Context, query string, limit int32) ([]model.Conversation, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockConversationStore) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockMessageStore struct {
	listByConversationFn func(ctx context.Context, conversationID string) ([]model.Message, error)
	countFn              func(ctx context.Context) (int64, error)
}

func (m *mockMessageStore) Insert(context.Context, model.Message) (bool, error) {
	return false, nil
}

func (m *mockMessageStore) InsertBatch(context.Context, []model.Message) (int64, error) {
	return 0, nil
}

func (m *mockMessageStore) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	if m.listByConversationFn != nil {
		return m.listByConversationFn(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockMessageStore) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockProjectStore struct {
	listWithCountsFn func(ctx context.Context) ([]store.ProjectWithCount, error)
}

func (m *mockProjectStore) GetOrCreate(context.Context, string) (*model.Project, error) {
	return nil, nil
}

func (m *mockProjectStore) GetByID(context.Context, int64) (*model.Project, error) {
	return nil, store.ErrNotFound
}

func (m *mockProjectStore) ListWithCounts(ctx context.Context) ([]store.ProjectWithCount, error) {
	if m.listWithCountsFn != nil {
		return m.listWithCountsFn(ctx)
	}
	return nil, nil
}
