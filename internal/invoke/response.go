package invoke

import (
	"net/http"

	"github.com/qanda-hq/qanda-bot/internal/cards"
)

// ErrorKind labels a routed error in the invoke error response body.
type ErrorKind string

const (
	ErrorNotFound   ErrorKind = "NotFound"
	ErrorValidation ErrorKind = "ValidationError"
	ErrorUpstream   ErrorKind = "UpstreamError"
)

type responseKind int

const (
	respNone responseKind = iota
	respOpenModule
	respMessage
	respContinueCard
	respFinal
	respError
)

// Response is the tagged union of invoke outcomes.
type Response struct {
	kind    responseKind
	module  *ModuleDescriptor
	text    string
	card    *cards.RenderedCard
	errKind ErrorKind
	detail  string
}

// OpenModule tells the host to open the described UI module.
func OpenModule(d *ModuleDescriptor) Response {
	return Response{kind: respOpenModule, module: d}
}

// Message shows the user a plain-text message in place of a module.
func Message(text string) Response {
	return Response{kind: respMessage, text: text}
}

// ContinueCard keeps the module open showing the given card.
func ContinueCard(card *cards.RenderedCard) Response {
	return Response{kind: respContinueCard, card: card}
}

// Final closes the module.
func Final() Response {
	return Response{kind: respFinal}
}

// NoResponse closes silently with an empty body.
func NoResponse() Response {
	return Response{kind: respNone}
}

// ErrorOf reports a routed error back to the host.
func ErrorOf(kind ErrorKind, detail string) Response {
	return Response{kind: respError, errKind: kind, detail: detail}
}

// IsError reports whether the response is an error variant.
func (r Response) IsError() bool { return r.kind == respError }

// ErrorDetail returns the error kind and detail for error responses.
func (r Response) ErrorDetail() (ErrorKind, string) { return r.errKind, r.detail }

// Descriptor returns the module descriptor for open-module responses.
func (r Response) Descriptor() *ModuleDescriptor { return r.module }

// Text returns the message text for message responses.
func (r Response) Text() string { return r.text }

// Card returns the card for continue-card responses.
func (r Response) Card() *cards.RenderedCard { return r.card }

// StatusCode returns the HTTP status the response is delivered with.
func (r Response) StatusCode() int {
	if r.kind != respError {
		return http.StatusOK
	}
	switch r.errKind {
	case ErrorNotFound:
		return http.StatusNotFound
	case ErrorValidation:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Body returns the wire body for the response, or nil for an empty
// body.
func (r Response) Body() any {
	switch r.kind {
	case respOpenModule:
		return map[string]any{
			"task": map[string]any{
				"type": "continue",
				"value": map[string]any{
					"title":           r.module.Title,
					"height":          r.module.Height,
					"width":           r.module.Width,
					"url":             r.module.URL,
					"fallbackUrl":     r.module.FallbackURL,
					"completionBotId": r.module.CompletionBotID,
				},
			},
		}
	case respMessage:
		return map[string]any{
			"task": map[string]any{
				"type":  "message",
				"value": r.text,
			},
		}
	case respContinueCard:
		return map[string]any{
			"task": map[string]any{
				"type": "continue",
				"value": map[string]any{
					"card": map[string]any{
						"contentType": r.card.ContentType,
						"content":     r.card.Content,
					},
				},
			},
		}
	case respFinal:
		return map[string]any{
			"task": map[string]any{"type": "final"},
		}
	case respError:
		return map[string]any{
			"error": map[string]any{
				"code":    string(r.errKind),
				"message": r.detail,
			},
		}
	default:
		return nil
	}
}
