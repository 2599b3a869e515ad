package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatbeto.app/archivist/internal/http/dto"
	"chatbeto.app/archivist/internal/store"
)

type ProjectHandler struct {
	projects      store.ProjectStore
	conversations store.ConversationStore
	messages      store.MessageStore
}

func NewProjectHandler(projects store.ProjectStore, conversations store.ConversationStore, messages store.MessageStore) *ProjectHandler {
	return &ProjectHandler{
		projects:      projects,
		conversations: conversations,
		messages:      messages,
	}
}

// List returns all projects with their conversation counts.
func (h *ProjectHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	projects, err := h.projects.ListWithCounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list projects", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}

	out := make([]dto.ProjectResponse, len(projects))
	for i, pc := range projects {
		out[i] = dto.ToProjectResponse(pc)
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// Stats returns archive-wide totals.
func (h *ProjectHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	convCount, err := h.conversations.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	msgCount, err := h.messages.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	projects, err := h.projects.ListWithCounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list projects", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		Conversations: convCount,
		Messages:      msgCount,
		Projects:      int64(len(projects)),
	})
}
