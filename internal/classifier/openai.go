package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"chatbeto.app/archivist/core/config"
)

const classifyPrompt = `You label chat conversation titles with a short project name.
Reply with the project name only: one or two words, no punctuation, no explanation.
If no project is recognizable, reply with %q.`

// OpenAI asks a chat model for a project name. Useful for the long tail of
// titles the keyword table misses; everything else should prefer the cheaper
// keyword classifier.
type OpenAI struct {
	client         openai.Client
	model          string
	defaultProject string
}

func NewOpenAI(cfg config.OpenAIConfig, defaultProject string) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai classifier requires an API key")
	}
	if defaultProject == "" {
		defaultProject = "General"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAI{
		client:         openai.NewClient(opts...),
		model:          model,
		defaultProject: defaultProject,
	}, nil
}

func (o *OpenAI) Classify(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return o.defaultProject, nil
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(classifyPrompt, o.defaultProject)),
			openai.UserMessage(title),
		},
		MaxCompletionTokens: openai.Int(16),
	})
	if err != nil {
		return "", fmt.Errorf("openai classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai classify: no choices in response")
	}

	name := strings.TrimSpace(resp.Choices[0].Message.Content)
	if name == "" {
		name = o.defaultProject
	}
	if len(name) > 30 {
		name = name[:30]
	}

	slog.DebugContext(ctx, "title classified",
		"model", o.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"project", name)

	return name, nil
}
