// Package classifier assigns a project name to a conversation title.
//
// Classification is a pluggable strategy: the importer and the back-fill job
// only depend on the Classifier interface, never on a concrete table or model.
package classifier

import (
	"context"
	"fmt"

	"chatbeto.app/archivist/core/config"
)

// Classifier derives a project name from a conversation title.
type Classifier interface {
	Classify(ctx context.Context, title string) (string, error)
}

// New builds the classifier selected by configuration.
func New(cfg config.ClassifierConfig) (Classifier, error) {
	switch cfg.Provider {
	case "", "keyword":
		return NewKeyword(cfg.DefaultProject), nil
	case "openai":
		return NewOpenAI(cfg.OpenAI, cfg.DefaultProject)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
