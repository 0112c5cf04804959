// Package contacts lists, searches, edits and bulk-imports the backend's
// contacts. Imports stream byte-level upload progress to the browser over
// server-sent events.
package contacts

import (
	"strings"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

// ContactForm is the create/edit form. Tags is a comma-separated list.
type ContactForm struct {
	Email        string `form:"email" validate:"required,email"`
	Name         string `form:"name" validate:"required,min=2,max=100"`
	Organization string `form:"organization" validate:"max=100"`
	Tags         string `form:"tags"`
}

// FormFor returns the edit form for an existing contact.
func FormFor(c backend.Contact) ContactForm {
	return ContactForm{
		Email:        c.Email,
		Name:         c.Name,
		Organization: c.Organization,
		Tags:         strings.Join(c.Tags, ", "),
	}
}

func (f *ContactForm) trim() {
	f.Email = strings.TrimSpace(f.Email)
	f.Name = strings.TrimSpace(f.Name)
	f.Organization = strings.TrimSpace(f.Organization)
}

// ParseTags splits a comma-separated tag list, trimming each tag and
// dropping blanks and repeats. Order of first appearance is kept.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// ListQuery selects a page of the contact list.
type ListQuery struct {
	Page   int
	Search string
}

// ImportSummary is the operator-facing outcome of an import.
type ImportSummary struct {
	Result *backend.ImportResult

	// Refresh is true when at least one row made it in (or nothing was
	// rejected), so the list should be reloaded and the dialog closed.
	Refresh bool

	// Warning is true when the backend rejected rows.
	Warning bool

	Message string
}
