package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatbeto.app/archivist/internal/http/handler"
	"chatbeto.app/archivist/internal/model"
	"chatbeto.app/archivist/internal/store"
)

var _ = Describe("ConversationHandler", func() {
	var (
		router *gin.Engine
		convs  *mockConversationStore
		msgs   *mockMessageStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		convs = &mockConversationStore{}
		msgs = &mockMessageStore{}
		h := handler.NewConversationHandler(convs, msgs)
		router.GET("/conversations", h.List)
		router.GET("/conversations/:id", h.Get)
		router.GET("/conversations/:id/messages", h.Messages)
		router.GET("/search", h.Search)
	})

	Describe("List", func() {
		It("returns 200 with conversations", func() {
			convs.listFn = func(_ context.Context, params store.ListConversationsParams) ([]model.Conversation, error) {
				Expect(params.Limit).To(Equal(int32(50)))
				return []model.Conversation{{ID: "c1", Title: "uno"}}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["conversations"]).To(HaveLen(1))
			Expect(resp["conversations"][0]["id"]).To(Equal("c1"))
		})

		It("passes the project filter through", func() {
			convs.listFn = func(_ context.Context, params store.ListConversationsParams) ([]model.Conversation, error) {
				Expect(params.ProjectID).NotTo(BeNil())
				Expect(*params.ProjectID).To(Equal(int64(7)))
				return nil, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations?project_id=7", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 400 on a non-numeric project filter", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations?project_id=abc", nil))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the store fails", func() {
			convs.listFn = func(context.Context, store.ListConversationsParams) ([]model.Conversation, error) {
				return nil, errors.New("boom")
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Get", func() {
		It("returns 404 for an unknown id", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/nope", nil))

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the conversation", func() {
			convs.getByIDFn = func(_ context.Context, id string) (*model.Conversation, error) {
				return &model.Conversation{ID: id, Title: "uno"}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/c1", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["title"]).To(Equal("uno"))
		})
	})

	Describe("Messages", func() {
		It("returns 404 when the conversation does not exist", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/nope/messages", nil))

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the conversation's messages", func() {
			convs.getByIDFn = func(_ context.Context, id string) (*model.Conversation, error) {
				return &model.Conversation{ID: id}, nil
			}
			msgs.listByConversationFn = func(_ context.Context, conversationID string) ([]model.Message, error) {
				Expect(conversationID).To(Equal("c1"))
				return []model.Message{
					{ID: "n1", Role: model.RoleUser, Content: "hola"},
					{ID: "n2", Role: model.RoleAssistant, Content: "respuesta"},
				}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/c1/messages", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["messages"]).To(HaveLen(2))
			Expect(resp["messages"][0]["role"]).To(Equal("user"))
		})
	})

	Describe("Search", func() {
		It("returns 400 without a query", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns matching conversations", func() {
			convs.searchFn = func(_ context.Context, query string, _ int32) ([]model.Conversation, error) {
				Expect(query).To(Equal("docker"))
				return []model.Conversation{{ID: "c1", Title: "Docker en Xubuntu"}}, nil
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=docker", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["conversations"]).To(HaveLen(1))
		})
	})
})
