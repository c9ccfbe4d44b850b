// Package invoke classifies inbound invoke events and produces the
// response contract the host platform expects.
package invoke

import "github.com/qanda-hq/qanda-bot/internal/models"

// Kind classifies an inbound invoke event.
type Kind int

const (
	// KindOther covers invoke names the bot does not handle.
	KindOther Kind = iota

	// KindModuleFetch asks the bot to describe a UI module to open.
	KindModuleFetch

	// KindModuleSubmit delivers the payload of a submitted UI module.
	KindModuleSubmit
)

// Invoke names delivered by the platform.
const (
	NameModuleFetch  = "task/fetch"
	NameModuleSubmit = "task/submit"
)

// KindOf maps an invoke name onto its Kind.
func KindOf(name string) Kind {
	switch name {
	case NameModuleFetch:
		return KindModuleFetch
	case NameModuleSubmit:
		return KindModuleSubmit
	default:
		return KindOther
	}
}

func (k Kind) String() string {
	switch k {
	case KindModuleFetch:
		return "module_fetch"
	case KindModuleSubmit:
		return "module_submit"
	default:
		return "other"
	}
}

// Event is one inbound invoke event, already deserialized. Events are
// immutable once constructed.
type Event struct {
	Kind           Kind
	ModuleID       string
	EntityID       string
	ConversationID string
	From           *models.Profile
	Payload        Value
}
