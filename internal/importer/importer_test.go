package importer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatbeto.app/archivist/internal/importer"
	"chatbeto.app/archivist/internal/model"
)

func writeArchive(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), "conversations.json")
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	return path
}

const smallArchive = `[
	{
		"conversation_id": "c1",
		"title": "Instalar VS Code",
		"create_time": 1700000000,
		"mapping": {
			"root": {"id": "root", "children": ["n1"]},
			"n1": {"id": "n1", "parent": "root", "children": ["n2"],
				"message": {"author": {"role": "user"}, "content": {"parts": ["hola"]}}},
			"n2": {"id": "n2", "parent": "n1", "children": [],
				"message": {"author": {"role": "assistant"}, "content": {"parts": ["respuesta"]}}}
		}
	},
	{
		"conversation_id": "c2",
		"title": "Receta de cocina",
		"mapping": {
			"m1": {"id": "m1", "children": [],
				"message": {"author": {"role": "user"}, "content": "pregunta"}}
		}
	}
]`

var _ = Describe("Importer", func() {
	var (
		ctx      context.Context
		stores   *mockStores
		classify *mockClassifier
		cfg      importer.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = newMockStores()
		classify = &mockClassifier{}
		cfg = importer.Config{
			BatchSize:      100,
			MaxContentLen:  65000,
			Workers:        1,
			DefaultProject: "General",
		}
	})

	Describe("Run", func() {
		It("imports every conversation and its messages", func() {
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(Equal(int64(2)))
			Expect(snap.ConversationsSkipped).To(BeZero())
			Expect(snap.ConversationsFailed).To(BeZero())
			Expect(snap.MessagesImported).To(Equal(int64(3)))

			Expect(stores.conversations.inserted).To(HaveLen(2))
			Expect(stores.messages.inserted).To(HaveLen(3))
		})

		It("attaches the classified project to each conversation", func() {
			classify.classifyFn = func(_ context.Context, title string) (string, error) {
				if strings.Contains(title, "VS Code") {
					return "VS Code", nil
				}
				return "Otros", nil
			}

			imp := importer.New(stores, classify, cfg)
			_, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(stores.conversations.attached).To(HaveLen(2))
			Expect(stores.projects.created).To(HaveKey("VS Code"))
			Expect(stores.projects.created).To(HaveKey("Otros"))
		})

		It("caches project lookups per name", func() {
			imp := importer.New(stores, classify, cfg)
			_, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			// Both conversations classify to the default; one round-trip total.
			Expect(stores.projects.calls).To(Equal(1))
		})

		It("skips conversations already present in the store", func() {
			stores.conversations.listIDsFn = func(context.Context) (map[string]struct{}, error) {
				return map[string]struct{}{"c1": {}}, nil
			}

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(Equal(int64(1)))
			Expect(snap.ConversationsSkipped).To(Equal(int64(1)))
			Expect(stores.conversations.inserted).To(HaveLen(1))
			Expect(stores.conversations.inserted[0].ID).To(Equal("c2"))
			// c1's messages are never loaded.
			Expect(stores.messages.inserted).To(HaveLen(1))
		})

		It("counts a duplicate-key race as skipped and loads nothing", func() {
			stores.conversations.insertFn = func(context.Context, *model.Conversation) (bool, error) {
				return false, nil
			}

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(BeZero())
			Expect(snap.ConversationsSkipped).To(Equal(int64(2)))
			Expect(stores.messages.inserted).To(BeEmpty())
		})

		It("is idempotent across a second run", func() {
			imp := importer.New(stores, classify, cfg)
			first, err := imp.Run(ctx, writeArchive(smallArchive))
			Expect(err).NotTo(HaveOccurred())
			Expect(first.ConversationsImported).To(Equal(int64(2)))

			// Second run resumes against the now-populated store.
			stores.conversations.listIDsFn = func(context.Context) (map[string]struct{}, error) {
				return map[string]struct{}{"c1": {}, "c2": {}}, nil
			}
			imp = importer.New(stores, classify, cfg)
			second, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(second.ConversationsImported).To(BeZero())
			Expect(second.ConversationsSkipped).To(Equal(int64(2)))
			Expect(stores.messages.inserted).To(HaveLen(3))
		})

		It("counts records without an id as failed and continues", func() {
			archive := `[
				{"title": "sin id", "mapping": {}},
				{"conversation_id": "c2", "title": "ok", "mapping": {}}
			]`

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsFailed).To(Equal(int64(1)))
			Expect(snap.ConversationsImported).To(Equal(int64(1)))
		})

		It("leaves the conversation unassigned when classification fails", func() {
			classify.classifyFn = func(context.Context, string) (string, error) {
				return "", errors.New("provider down")
			}

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(Equal(int64(2)))
			// Failure falls back to the default project, not to no project.
			Expect(stores.projects.created).To(HaveKey("General"))
		})

		It("keeps the conversation when project resolution fails", func() {
			stores.projects.getOrCreateFn = func(context.Context, string) (*model.Project, error) {
				return nil, errors.New("connection reset")
			}

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(Equal(int64(2)))
			Expect(stores.conversations.attached).To(BeEmpty())
		})

		It("aborts on an unreadable archive", func() {
			imp := importer.New(stores, classify, cfg)
			_, err := imp.Run(ctx, filepath.Join(GinkgoT().TempDir(), "missing.json"))
			Expect(err).To(HaveOccurred())
		})

		It("aborts when the resume query fails", func() {
			stores.conversations.listIDsFn = func(context.Context) (map[string]struct{}, error) {
				return nil, errors.New("connection refused")
			}

			imp := importer.New(stores, classify, cfg)
			_, err := imp.Run(ctx, writeArchive(smallArchive))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("message loading", func() {
		It("splits messages into batches of the configured size", func() {
			nodes := make([]string, 0, 25)
			for i := 0; i < 25; i++ {
				nodes = append(nodes, fmt.Sprintf(
					`"n%02d": {"id": "n%02d", "children": [], "message": {"author": {"role": "user"}, "content": "m%d"}}`,
					i, i, i))
			}
			archive := `[{"conversation_id": "c1", "title": "t", "mapping": {` + strings.Join(nodes, ",") + `}}]`

			cfg.BatchSize = 10
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.MessagesImported).To(Equal(int64(25)))
			Expect(stores.messages.batchCalls).To(Equal(3))
		})

		It("falls back to row-by-row inserts when a batch fails", func() {
			nodes := make([]string, 0, 10)
			for i := 1; i <= 10; i++ {
				nodes = append(nodes, fmt.Sprintf(
					`"n%02d": {"id": "n%02d", "children": [], "message": {"author": {"role": "user"}, "content": "m%d"}}`,
					i, i, i))
			}
			archive := `[{"conversation_id": "c1", "title": "t", "mapping": {` + strings.Join(nodes, ",") + `}}]`

			stores.messages.insertBatchFn = func(context.Context, []model.Message) (int64, error) {
				return 0, errors.New("malformed packet")
			}
			stores.messages.insertFn = func(_ context.Context, msg model.Message) (bool, error) {
				if msg.ID == "n05" {
					return false, errors.New("data too long")
				}
				stores.messages.mu.Lock()
				stores.messages.inserted = append(stores.messages.inserted, msg)
				stores.messages.mu.Unlock()
				return true, nil
			}

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			// One bad row; its nine siblings still land.
			Expect(snap.MessagesImported).To(Equal(int64(9)))
			Expect(snap.MessagesFailed).To(Equal(int64(1)))
			Expect(snap.ConversationsImported).To(Equal(int64(1)))
			for _, msg := range stores.messages.inserted {
				Expect(msg.ID).NotTo(Equal("n05"))
			}
		})

		It("counts duplicate rows reported by the batch as skipped", func() {
			stores.messages.insertBatchFn = func(_ context.Context, msgs []model.Message) (int64, error) {
				return int64(len(msgs)) - 1, nil
			}

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.MessagesSkipped).To(Equal(int64(2)))
			Expect(snap.MessagesFailed).To(BeZero())
		})

		It("counts truncated messages", func() {
			long := strings.Repeat("palabra ", 200)
			archive := `[{"conversation_id": "c1", "title": "t", "mapping": {
				"n1": {"id": "n1", "children": [], "message": {"author": {"role": "user"}, "content": "` + long + `"}}
			}}]`

			cfg.MaxContentLen = 100
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.MessagesTruncated).To(Equal(int64(1)))
		})

		It("counts empty messages dropped by the skip policy", func() {
			archive := `[{"conversation_id": "c1", "title": "t", "mapping": {
				"n1": {"id": "n1", "children": [], "message": {"author": {"role": "user"}, "content": "hola"}},
				"n2": {"id": "n2", "children": [], "message": {"author": {"role": "tool"}, "content": ""}}
			}}]`

			cfg.SkipEmpty = true
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.MessagesImported).To(Equal(int64(1)))
			Expect(snap.MessagesEmptySkipped).To(Equal(int64(1)))
		})
	})

	Describe("end to end", func() {
		It("imports a two-message exchange without errors", func() {
			archive := `[{"id": "c1", "title": "Test", "mapping": {
				"n1": {"id": "n1", "parent": null,
					"message": {"author": {"role": "user"}, "content": {"content_type": "text", "parts": ["Hi"]}, "create_time": 1700000000}},
				"n2": {"id": "n2", "parent": "n1",
					"message": {"author": {"role": "assistant"}, "content": {"content_type": "text", "parts": ["Hello!"]}, "create_time": 1700000010}}
			}}]`

			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(Equal(int64(1)))
			Expect(snap.ConversationsFailed).To(BeZero())
			Expect(snap.MessagesImported).To(Equal(int64(2)))
			Expect(snap.MessagesFailed).To(BeZero())

			Expect(stores.conversations.inserted).To(HaveLen(1))
			Expect(stores.conversations.inserted[0].ID).To(Equal("c1"))
			Expect(stores.conversations.inserted[0].Title).To(Equal("Test"))

			byID := map[string]model.Message{}
			for _, msg := range stores.messages.inserted {
				byID[msg.ID] = msg
			}
			Expect(byID["n1"].Role).To(Equal(model.RoleUser))
			Expect(byID["n1"].Content).To(Equal("Hi"))
			Expect(byID["n2"].Role).To(Equal(model.RoleAssistant))
			Expect(byID["n2"].Content).To(Equal("Hello!"))
			Expect(byID["n2"].ParentID).To(HaveValue(Equal("n1")))
		})
	})

	Describe("relations", func() {
		It("records parent edges when enabled", func() {
			cfg.WriteRelations = true
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.RelationsImported).To(Equal(int64(2)))
			Expect(stores.relations.inserted).To(ContainElement(model.MessageRelation{ParentID: "n1", ChildID: "n2"}))
		})

		It("writes no relations by default", func() {
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(smallArchive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.RelationsImported).To(BeZero())
			Expect(stores.relations.inserted).To(BeEmpty())
		})
	})

	Describe("concurrency", func() {
		It("imports everything exactly once with multiple workers", func() {
			nodes := make([]string, 0, 40)
			recs := make([]string, 0, 8)
			for c := 0; c < 8; c++ {
				nodes = nodes[:0]
				for i := 0; i < 5; i++ {
					nodes = append(nodes, fmt.Sprintf(
						`"n%d": {"id": "c%d-n%d", "children": [], "message": {"author": {"role": "user"}, "content": "m"}}`,
						i, c, i))
				}
				recs = append(recs, fmt.Sprintf(
					`{"conversation_id": "c%d", "title": "t%d", "mapping": {%s}}`,
					c, c, strings.Join(nodes, ",")))
			}
			archive := `[` + strings.Join(recs, ",") + `]`

			cfg.Workers = 4
			imp := importer.New(stores, classify, cfg)
			snap, err := imp.Run(ctx, writeArchive(archive))

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.ConversationsImported).To(Equal(int64(8)))
			Expect(snap.MessagesImported).To(Equal(int64(40)))
			Expect(stores.messages.inserted).To(HaveLen(40))
		})
	})
})
