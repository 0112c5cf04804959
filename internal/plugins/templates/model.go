// Package templates manages reusable email templates on the backend:
// listing, creating, editing, deleting and previewing them. Bodies carry
// {{variable}} placeholders; the editor's ${variable} form is normalized on
// save.
package templates

import (
	"strings"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

// DefaultVariables is the variable set a new template starts with.
var DefaultVariables = []string{"recipientName", "recipientEmail", "organization", "senderName", "senderTitle"}

// DefaultContent is the body a new template starts with.
const DefaultContent = "Dear {{recipientName}},\n\n" +
	"I hope this email finds you well. My name is {{senderName}} from {{organization}}.\n\n" +
	"[Your content here]\n\n" +
	"Best regards,\n{{senderName}}\n{{senderTitle}}\n{{organization}}"

// SampleValues fill the default variables in previews.
var SampleValues = map[string]string{
	"recipientName":  "Jane Doe",
	"recipientEmail": "jane.doe@example.com",
	"organization":   "Acme Corp",
	"senderName":     "Alex Smith",
	"senderTitle":    "Campaign Manager",
}

// TemplateForm is the create/edit form. Variables is a comma-separated list.
type TemplateForm struct {
	Name      string `form:"name" validate:"required,min=3,max=100"`
	Subject   string `form:"subject" validate:"required,min=3,max=200"`
	Content   string `form:"content" validate:"required,min=10"`
	Category  string `form:"category" validate:"required,oneof=general newsletter promotional notification"`
	Variables string `form:"variables"`
}

// NewForm returns the form for a new template.
func NewForm() TemplateForm {
	return TemplateForm{
		Category:  backend.CategoryGeneral,
		Content:   DefaultContent,
		Variables: strings.Join(DefaultVariables, ", "),
	}
}

// FormFor returns the edit form for an existing template.
func FormFor(t *backend.Template) TemplateForm {
	return TemplateForm{
		Name:      t.Name,
		Subject:   t.Subject,
		Content:   t.Content,
		Category:  t.Category,
		Variables: strings.Join(t.Variables, ", "),
	}
}

// trim removes surrounding whitespace from single-line fields.
func (f *TemplateForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Category = strings.TrimSpace(f.Category)
}

// ParseVariables splits a comma- or newline-separated list, trims each
// name, strips {{ }} or ${ } wrappers, and drops blanks and duplicates.
func ParseVariables(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimPrefix(f, "${")
		f = strings.TrimPrefix(f, "{{")
		f = strings.TrimSuffix(f, "}}")
		f = strings.TrimSuffix(f, "}")
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
