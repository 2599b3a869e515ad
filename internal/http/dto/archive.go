package dto

import (
	"time"

	"chatbeto.app/archivist/internal/model"
	"chatbeto.app/archivist/internal/store"
)

type ConversationResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	ProjectID  *int64     `json:"project_id,omitempty"`
	ModelSlug  *string    `json:"model_slug,omitempty"`
	GizmoID    *string    `json:"gizmo_id,omitempty"`
	CreateTime *time.Time `json:"create_time,omitempty"`
	UpdateTime *time.Time `json:"update_time,omitempty"`
}

func ToConversationResponse(conv *model.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:         conv.ID,
		Title:      conv.Title,
		ProjectID:  conv.ProjectID,
		ModelSlug:  conv.ModelSlug,
		GizmoID:    conv.GizmoID,
		CreateTime: conv.CreateTime,
		UpdateTime: conv.UpdateTime,
	}
}

func ToConversationResponses(convs []model.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, len(convs))
	for i := range convs {
		out[i] = ToConversationResponse(&convs[i])
	}
	return out
}

type MessageResponse struct {
	ID          string     `json:"id"`
	Role        string     `json:"role"`
	AuthorName  *string    `json:"author_name,omitempty"`
	Content     string     `json:"content"`
	ContentType string     `json:"content_type,omitempty"`
	ParentID    *string    `json:"parent_id,omitempty"`
	CreateTime  *time.Time `json:"create_time,omitempty"`
	Truncated   bool       `json:"truncated,omitempty"`
}

func ToMessageResponse(msg model.Message) MessageResponse {
	return MessageResponse{
		ID:          msg.ID,
		Role:        string(msg.Role),
		AuthorName:  msg.AuthorName,
		Content:     msg.Content,
		ContentType: msg.ContentType,
		ParentID:    msg.ParentID,
		CreateTime:  msg.CreateTime,
		Truncated:   msg.Truncated,
	}
}

type ProjectResponse struct {
	ID            int64   `json:"id,string"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Starred       bool    `json:"starred"`
	ExternalID    *string `json:"external_id,omitempty"`
	Conversations int64   `json:"conversations"`
}

func ToProjectResponse(pc store.ProjectWithCount) ProjectResponse {
	return ProjectResponse{
		ID:            pc.Project.ID,
		Name:          pc.Project.Name,
		Description:   pc.Project.Description,
		Starred:       pc.Project.Starred,
		ExternalID:    pc.Project.ExternalID,
		Conversations: pc.Conversations,
	}
}

type StatsResponse struct {
	Conversations int64 `json:"conversations"`
	Messages      int64 `json:"messages"`
	Projects      int64 `json:"projects"`
}
