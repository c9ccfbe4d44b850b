// Package cards renders declarative card templates against runtime data
// and wraps the result in the attachment shape the host platform expects.
package cards

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Attachment content types recognized by the host platform.
const (
	ContentTypeAdaptive      = "application/vnd.microsoft.card.adaptive"
	ContentTypeHero          = "application/vnd.microsoft.card.hero"
	ContentTypeThumbnail     = "application/vnd.microsoft.card.thumbnail"
	ContentTypeO365Connector = "application/vnd.microsoft.teams.card.o365connector"
)

// RenderedCard is a fully resolved card attachment ready to send.
type RenderedCard struct {
	ContentType string         `json:"contentType"`
	Content     map[string]any `json:"content"`
}

// TemplateError indicates a structurally invalid template. It is a
// programming error with vetted templates; missing data never raises it.
type TemplateError struct {
	Reason string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid card template: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid card template: %s", e.Reason)
}

func (e *TemplateError) Unwrap() error { return e.Err }

var placeholderRe = regexp.MustCompile(`\{\{\s*#?\??\s*([^{}]+?)\s*\}\}`)

// Render evaluates template against data and wraps the resolved document
// into its card family's attachment shape. Every placeholder is treated
// as conditional: a branch whose content depends on an absent or falsy
// value is dropped from the output rather than rendered as literal text.
// Render is pure; the input template is never mutated.
func Render(template any, data map[string]any) (*RenderedCard, error) {
	// Round-trip through JSON: validates the tree (rejects cycles and
	// unmarshalable values) and gives the evaluator its own copy.
	raw, err := json.Marshal(template)
	if err != nil {
		return nil, &TemplateError{Reason: "not a JSON tree", Err: err}
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, &TemplateError{Reason: "malformed JSON", Err: err}
	}

	resolved, dropped := evaluate(tree, data)
	if dropped {
		resolved = map[string]any{}
	}

	doc, ok := resolved.(map[string]any)
	if !ok {
		return nil, &TemplateError{Reason: "template root must be an object"}
	}

	return wrap(doc), nil
}

// wrap inspects the resolved document's discriminator and builds the
// card-family-specific attachment. Unrecognized discriminators fall
// back to the adaptive-card shape.
func wrap(doc map[string]any) *RenderedCard {
	if t, _ := doc["type"].(string); t == "AdaptiveCard" {
		return &RenderedCard{ContentType: ContentTypeAdaptive, Content: doc}
	}

	ct, _ := doc["contentType"].(string)
	switch ct {
	case ContentTypeO365Connector:
		return &RenderedCard{ContentType: ContentTypeO365Connector, Content: doc}
	case ContentTypeHero:
		return &RenderedCard{ContentType: ContentTypeHero, Content: pickCardFields(doc)}
	case ContentTypeThumbnail:
		return &RenderedCard{ContentType: ContentTypeThumbnail, Content: pickCardFields(doc)}
	default:
		return &RenderedCard{ContentType: ContentTypeAdaptive, Content: doc}
	}
}

// pickCardFields extracts the hero/thumbnail card surface from the
// resolved document.
func pickCardFields(doc map[string]any) map[string]any {
	out := map[string]any{}
	for _, k := range []string{"title", "subtitle", "text", "images", "buttons", "tap"} {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out
}

// evaluate resolves a template node against data. The second return is
// true when the node's content depends on an absent or falsy value and
// the node must be dropped from its parent.
func evaluate(node any, data map[string]any) (any, bool) {
	switch n := node.(type) {
	case string:
		return evaluateString(n, data)
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			ev, drop := evaluate(v, data)
			if drop {
				continue
			}
			out[k] = ev
		}
		// An object emptied by dropped placeholders is itself dropped.
		if len(out) == 0 && len(n) > 0 {
			return nil, true
		}
		return out, false
	case []any:
		out := make([]any, 0, len(n))
		for _, v := range n {
			ev, drop := evaluate(v, data)
			if drop {
				continue
			}
			out = append(out, ev)
		}
		if len(out) == 0 && len(n) > 0 {
			return nil, true
		}
		return out, false
	default:
		// Numbers, booleans, null: literal nodes pass through.
		return n, false
	}
}

// evaluateString binds placeholders inside a string node. A string that
// is exactly one placeholder resolves to the bound value with its type
// preserved; mixed text interpolates. Any absent or falsy binding drops
// the whole node.
func evaluateString(s string, data map[string]any) (any, bool) {
	matches := placeholderRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, false
	}

	// Whole-string placeholder keeps the bound value's type.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		expr := s[matches[0][2]:matches[0][3]]
		v, ok := resolvePath(expr, data)
		if !ok || isFalsy(v) {
			return nil, true
		}
		return v, false
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		expr := s[m[2]:m[3]]
		v, ok := resolvePath(expr, data)
		if !ok || isFalsy(v) {
			return nil, true
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(stringify(v))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), false
}

// resolvePath walks a dotted expression through nested objects.
func resolvePath(expr string, data map[string]any) (any, bool) {
	cur := any(data)
	for _, seg := range strings.Split(expr, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// isFalsy reports whether a bound value suppresses its branch.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	default:
		return false
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
