// Package markup converts user-authored rich markup into constrained
// display text suitable for card text fields.
package markup

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Display is the sanitized form of a rich-markup string. Images are
// extracted into their own ordered list; they are rendered elsewhere
// in the card, not inline in the text block.
type Display struct {
	Text   string
	Images []string
}

var (
	imgRe       = regexp.MustCompile(`(?i)<img[^>]*src=["']([^"']*)["'][^>]*>`)
	brRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	pOpenRe     = regexp.MustCompile(`(?i)<p(\s[^>]*)?>`)
	pCloseRe    = regexp.MustCompile(`(?i)</p>`)
	boldRe      = regexp.MustCompile(`(?i)</?(b|strong)(\s[^>]*)?>`)
	italicRe    = regexp.MustCompile(`(?i)</?(i|em)(\s[^>]*)?>`)
	anchorRe    = regexp.MustCompile(`(?i)<a[^>]*href=["']([^"']*)["'][^>]*>(.*?)</a>`)
	olRe        = regexp.MustCompile(`(?is)<ol(\s[^>]*)?>(.*?)</ol>`)
	ulRe        = regexp.MustCompile(`(?is)<ul(\s[^>]*)?>(.*?)</ul>`)
	liRe        = regexp.MustCompile(`(?is)<li(\s[^>]*)?>(.*?)</li>`)
	liBareRe    = regexp.MustCompile(`(?i)<li(\s[^>]*)?>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
	trailingLWS = regexp.MustCompile(`(?m)[ \t]+$`)
)

// ToDisplayText converts rich markup into a plain, markdown-like text
// representation plus an ordered list of extracted image references.
// It is total: any input, including the empty string, yields a result
// and never an error. Constructs outside the supported subset are
// stripped with their inner text preserved.
func ToDisplayText(rich string) Display {
	if rich == "" {
		return Display{Text: "", Images: []string{}}
	}

	images := []string{}
	text := imgRe.ReplaceAllStringFunc(rich, func(m string) string {
		if sub := imgRe.FindStringSubmatch(m); len(sub) > 1 {
			images = append(images, sub[1])
		}
		return ""
	})

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = brRe.ReplaceAllString(text, "\n")

	// Ordered lists number their items; everything else bullets.
	text = olRe.ReplaceAllStringFunc(text, func(block string) string {
		n := 0
		return liRe.ReplaceAllStringFunc(block, func(item string) string {
			n++
			sub := liRe.FindStringSubmatch(item)
			return fmt.Sprintf("\n%d. %s", n, strings.TrimSpace(sub[2]))
		})
	})
	text = ulRe.ReplaceAllStringFunc(text, func(block string) string {
		return liRe.ReplaceAllStringFunc(block, func(item string) string {
			sub := liRe.FindStringSubmatch(item)
			return "\n- " + strings.TrimSpace(sub[2])
		})
	})
	// Stray list items outside a recognized list still get a bullet.
	text = liBareRe.ReplaceAllString(text, "\n- ")

	text = pOpenRe.ReplaceAllString(text, "")
	text = pCloseRe.ReplaceAllString(text, "\n\n")
	text = boldRe.ReplaceAllString(text, "**")
	text = italicRe.ReplaceAllString(text, "_")
	text = anchorRe.ReplaceAllString(text, "[$2]($1)")

	// Anything left is outside the supported subset: drop the tag,
	// keep the inner text.
	text = tagRe.ReplaceAllString(text, "")

	text = html.UnescapeString(text)
	text = trailingLWS.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return Display{Text: text, Images: images}
}
