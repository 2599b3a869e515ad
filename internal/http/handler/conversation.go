package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatbeto.app/archivist/internal/http/dto"
	"chatbeto.app/archivist/internal/store"
)

type ConversationHandler struct {
	conversations store.ConversationStore
	messages      store.MessageStore
}

func NewConversationHandler(conversations store.ConversationStore, messages store.MessageStore) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
	}
}

// List returns a page of conversations, optionally filtered by project.
func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	params := store.ListConversationsParams{
		Limit:  parseInt32(c.Query("limit"), 50),
		Offset: parseInt32(c.Query("offset"), 0),
	}
	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_id must be an integer"})
			return
		}
		params.ProjectID = &projectID
	}

	convs, err := h.conversations.List(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": dto.ToConversationResponses(convs)})
}

// Get returns one conversation by id.
func (h *ConversationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	conv, err := h.conversations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get conversation", "error", err, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversation"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(conv))
}

// Messages returns the messages of one conversation in chronological order.
func (h *ConversationHandler) Messages(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.conversations.GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get conversation", "error", err, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversation"})
		return
	}

	msgs, err := h.messages.ListByConversation(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list messages", "error", err, "conversation_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	out := make([]dto.MessageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = dto.ToMessageResponse(msg)
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// Search finds conversations by title or message content.
func (h *ConversationHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	convs, err := h.conversations.Search(ctx, query, parseInt32(c.Query("limit"), 50))
	if err != nil {
		slog.ErrorContext(ctx, "search failed", "error", err, "query", query)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": dto.ToConversationResponses(convs)})
}

func parseInt32(raw string, fallback int32) int32 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return fallback
	}
	return int32(n)
}
