// Package compose implements the message-extension query that inserts
// generated placeholder text into the compose box.
package compose

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/qanda-hq/qanda-bot/internal/cards"
)

// CommandRandomText is the extension command this package serves.
const CommandRandomText = "getRandomText"

const (
	defaultResultCount = 5
	maxResultCount     = 25
)

// Query is a compose-extension query as delivered in the invoke value.
type Query struct {
	CommandID  string           `json:"commandId"`
	Parameters []QueryParameter `json:"parameters"`
}

// QueryParameter is a single query parameter.
type QueryParameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Result is the composeExtension result body.
type Result struct {
	Type             string       `json:"type"`
	AttachmentLayout string       `json:"attachmentLayout"`
	Attachments      []Attachment `json:"attachments"`
}

// Attachment pairs full card content with its list preview.
type Attachment struct {
	ContentType string         `json:"contentType"`
	Content     map[string]any `json:"content"`
	Preview     map[string]any `json:"preview,omitempty"`
}

// RandomText builds a list of generated-text thumbnail cards. The
// result count is clamped to a sane range.
func RandomText(q Query) Result {
	count := defaultResultCount
	for _, p := range q.Parameters {
		if p.Name == "count" {
			if n, ok := p.Value.(float64); ok && n > 0 {
				count = int(n)
			}
		}
	}
	if count > maxResultCount {
		count = maxResultCount
	}

	attachments := make([]Attachment, 0, count)
	for i := 0; i < count; i++ {
		title := gofakeit.Sentence(4)
		text := gofakeit.Paragraph(1, 3, 8, " ")
		image := fmt.Sprintf("https://picsum.photos/seed/%d/160/120", gofakeit.Number(1, 10000))

		content := map[string]any{
			"title":  title,
			"text":   text,
			"images": []any{map[string]any{"url": image}},
		}
		preview := map[string]any{
			"title": title,
			"text":  text,
		}

		attachments = append(attachments, Attachment{
			ContentType: cards.ContentTypeThumbnail,
			Content:     content,
			Preview:     preview,
		})
	}

	return Result{
		Type:             "result",
		AttachmentLayout: "list",
		Attachments:      attachments,
	}
}
