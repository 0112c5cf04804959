// Package render substitutes {{variable}} placeholders in template bodies
// and prepares bodies for safe preview in the console.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MissingPolicy decides what happens to a placeholder with no value.
type MissingPolicy int

const (
	// KeepMissing leaves unresolved placeholders in the output verbatim.
	KeepMissing MissingPolicy = iota

	// ErrorOnMissing fails with *MissingError listing every unresolved name.
	ErrorOnMissing
)

// placeholderRe matches {{name}} with optional inner whitespace.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// editorRe matches the ${name} form some editors produce.
var editorRe = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}`)

// MissingError lists placeholders that had no value.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("unresolved template variables: %s", strings.Join(e.Names, ", "))
}

// Substitute replaces every {{name}} in body with vars[name]. Values are
// inserted as-is. A present-but-empty value still counts as resolved.
func Substitute(body string, vars map[string]string, policy MissingPolicy) (string, error) {
	var missing []string
	seen := map[string]bool{}

	out := placeholderRe.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})

	if policy == ErrorOnMissing && len(missing) > 0 {
		sort.Strings(missing)
		return "", &MissingError{Names: missing}
	}
	return out, nil
}

// NormalizePlaceholders rewrites ${name} to {{name}} so stored bodies use a
// single placeholder syntax.
func NormalizePlaceholders(body string) string {
	return editorRe.ReplaceAllString(body, "{{$1}}")
}

// Variables returns the distinct placeholder names in body in order of
// first appearance. Both syntaxes are recognised.
func Variables(body string) []string {
	body = NormalizePlaceholders(body)
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
