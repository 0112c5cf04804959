package render

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for email previews.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared preview policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Email bodies lean on inline styles and layout tables.
		policy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th", "table", "a", "h1", "h2", "h3")
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "center")
		policy.AllowAttrs("colspan", "rowspan", "align", "width").OnElements("td", "th")
		policy.AllowAttrs("align", "width", "cellpadding", "cellspacing").OnElements("table")
		policy.AllowAttrs("class").Globally()
	})
	return policy
}

// tagRe is a cheap test for "this body contains markup".
var tagRe = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// HTML strips scripts, event handlers and javascript: URLs from input.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getPolicy().Sanitize(input)
}

// Preview substitutes vars into body (unresolved placeholders stay literal)
// and returns markup safe to embed in a console page. Plain-text bodies are
// escaped and their line breaks kept.
func Preview(body string, vars map[string]string) string {
	out, _ := Substitute(NormalizePlaceholders(body), vars, KeepMissing)
	if !tagRe.MatchString(out) {
		return strings.ReplaceAll(html.EscapeString(out), "\n", "<br>")
	}
	return HTML(out)
}
