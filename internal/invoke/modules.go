package invoke

import (
	"fmt"
	"strings"
)

// Module IDs the bot serves.
const (
	ModuleAskQuestion  = "askquestion"
	ModuleViewQuestion = "viewquestion"
)

// ErrModuleNotFound reports an unknown or missing module ID.
type ErrModuleNotFound struct {
	ModuleID string
}

func (e *ErrModuleNotFound) Error() string {
	return fmt.Sprintf("unknown module: %q", e.ModuleID)
}

// ModuleDescriptor describes a UI module for the host to open.
type ModuleDescriptor struct {
	Title           string
	Height          int
	Width           int
	URL             string
	FallbackURL     string
	CompletionBotID string
}

// ModuleRegistry resolves module IDs to descriptors. Statically known
// modules are fixed at construction; entity-scoped modules are computed
// per lookup.
type ModuleRegistry struct {
	baseURI string
	appURI  string
	botID   string
	static  map[string]ModuleDescriptor
}

// NewModuleRegistry builds the registry. baseURI hosts the module form
// pages, appURI is the companion web app, botID correlates submits back
// to this bot.
func NewModuleRegistry(baseURI, appURI, botID string) *ModuleRegistry {
	baseURI = strings.TrimRight(baseURI, "/")
	appURI = strings.TrimRight(appURI, "/")

	return &ModuleRegistry{
		baseURI: baseURI,
		appURI:  appURI,
		botID:   botID,
		static: map[string]ModuleDescriptor{
			ModuleAskQuestion: {
				Title:           "Ask a Question",
				Height:          1020,
				Width:           1632,
				URL:             baseURI + "/form/ask",
				FallbackURL:     appURI,
				CompletionBotID: botID,
			},
		},
	}
}

// Lookup resolves a module ID, case-insensitively. Entity-scoped
// modules require entityID.
func (r *ModuleRegistry) Lookup(moduleID, entityID string) (*ModuleDescriptor, error) {
	id := strings.ToLower(strings.TrimSpace(moduleID))

	if d, ok := r.static[id]; ok {
		return &d, nil
	}

	if id == ModuleViewQuestion && entityID != "" {
		return &ModuleDescriptor{
			Title:           "View Question",
			Height:          1020,
			Width:           1632,
			URL:             fmt.Sprintf("%s/form/question/%s", r.baseURI, entityID),
			FallbackURL:     fmt.Sprintf("%s/question/%s", r.appURI, entityID),
			CompletionBotID: r.botID,
		}, nil
	}

	return nil, &ErrModuleNotFound{ModuleID: moduleID}
}

// QuestionURL returns the companion web app link for a question.
func (r *ModuleRegistry) QuestionURL(questionID string) string {
	if r.appURI == "" {
		return ""
	}
	return fmt.Sprintf("%s/question/%s", r.appURI, questionID)
}
