// Package platform talks to the chat platform's connector REST API to
// send, replace and delete card activities.
package platform

import (
	"context"
	"fmt"

	"github.com/qanda-hq/qanda-bot/internal/cards"
)

// UpstreamError reports a failed connector call.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("platform %s: unexpected status code: %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("platform %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Connector sends card activities into conversations.
type Connector interface {
	// SendCard posts a card attachment to the conversation and returns
	// the platform activity ID of the created message.
	SendCard(ctx context.Context, conversationID string, card *cards.RenderedCard) (string, error)

	// DeleteActivity removes a previously sent activity.
	DeleteActivity(ctx context.Context, conversationID, activityID string) error
}
