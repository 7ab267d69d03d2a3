package util

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// contentPolicy allows the basic markdown-rendered formatting clients produce and strips
// everything else, including scripts and event-handler attributes.
var contentPolicy = newContentPolicy()

var plainPolicy = bluemonday.StrictPolicy()

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoFollowOnLinks(true)
	return p
}

// SanitizeContent cleans user-submitted rich text (proposal descriptions, comments,
// official responses) and trims surrounding whitespace. Invalid UTF-8 yields "".
func SanitizeContent(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	return strings.TrimSpace(contentPolicy.Sanitize(s))
}

// SanitizePlain strips all markup from plain-text fields such as titles, names and vote
// reasons. The result is literal text: entities the policy produces are decoded again, so
// "Parks & Rec" is stored as typed and clients must escape it when rendering HTML.
func SanitizePlain(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(s)))
}
