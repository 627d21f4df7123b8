// Package sanitizer removes noise from free-text fields: HTML entities,
// stray markup, control characters and redundant whitespace.
package sanitizer

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Func is the signature shared by sanitizers
type Func func(string) string

// markupSymbols are dropped wherever they appear in text
const markupSymbols = "<>{}[]|\\^~`"

// Sanitize returns text with entities decoded, markup and control characters
// removed, whitespace runs collapsed to one space and both ends trimmed.
// Sanitize(Sanitize(s)) == Sanitize(s) for every s.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	current := text
	for {
		next := pass(current)
		if next == current {
			return next
		}
		current = next
	}
}

// pass applies the rules once, in fixed order
func pass(text string) string {
	text = norm.NFC.String(text)
	text = decodeEntities(text)
	text = stripTags(text)
	text = stripNoise(text)
	text = collapseSpaces(text)
	return strings.TrimSpace(text)
}

// decodeEntities replaces HTML character references with their plain-text form.
// Multiply encoded references ("&amp;amp;nbsp;") are unwrapped completely.
func decodeEntities(text string) string {
	for strings.Contains(text, "&") {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}
	return text
}

// stripNoise drops control, format and private-use characters and markup symbols.
// Whitespace controls survive so collapseSpaces can fold them.
func stripNoise(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return r
		case unicode.IsControl(r),
			unicode.Is(unicode.Cf, r),
			unicode.Is(unicode.Co, r),
			unicode.Is(unicode.Cs, r),
			r == unicode.ReplacementChar:
			return -1
		case strings.ContainsRune(markupSymbols, r):
			return -1
		default:
			return r
		}
	}, text)
}

func collapseSpaces(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	previousSpace := false
	for _, r := range value {
		if unicode.IsSpace(r) {
			if previousSpace {
				continue
			}

			builder.WriteRune(' ')
			previousSpace = true

			continue
		}

		builder.WriteRune(r)
		previousSpace = false
	}

	return builder.String()
}

// tagPattern matches complete tags, comments and declarations. A '<' outside
// a match is plain text.
var tagPattern = regexp.MustCompile(`<!--[\s\S]*?-->|<!?/?[A-Za-z][A-Za-z0-9:-]*(?:\s[^<>]*)?/?>`)

// escapeStrayBrackets prepares text for the HTML parser: every '<' that does
// not open a tag becomes "&lt;", so "a<b" stays text instead of opening <b>.
// It reports false when text holds no tag at all.
func escapeStrayBrackets(text string) (string, bool) {
	matches := tagPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, false
	}

	var builder strings.Builder
	builder.Grow(len(text) + 8)

	last := 0
	for _, m := range matches {
		builder.WriteString(strings.ReplaceAll(text[last:m[0]], "<", "&lt;"))
		builder.WriteString(text[m[0]:m[1]])
		last = m[1]
	}
	builder.WriteString(strings.ReplaceAll(text[last:], "<", "&lt;"))

	return builder.String(), true
}

// blockElements render as a word boundary when their tags are removed
var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "th": true, "table": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
	"blockquote": true, "pre": true,
}

// skippedElements carry no human readable text
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// stripTags removes HTML tags, keeping text content. Inline tags join their
// neighbours ("Act<b>or</b>" -> "Actor"); block tags leave a space.
// Text without a complete tag is left for stripNoise.
func stripTags(text string) string {
	escaped, ok := escapeStrayBrackets(text)
	if !ok {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escaped))
	if err != nil {
		return text
	}

	var builder strings.Builder
	builder.Grow(len(text))
	writeText(&builder, doc.Selection)

	return builder.String()
}

func writeText(builder *strings.Builder, selection *goquery.Selection) {
	selection.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			builder.WriteString(node.Text())
		case name == "#comment" || skippedElements[name]:
			return
		case blockElements[name]:
			builder.WriteByte(' ')
			writeText(builder, node)
			builder.WriteByte(' ')
		default:
			writeText(builder, node)
		}
	})
}
