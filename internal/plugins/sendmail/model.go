package sendmail

import (
	"fmt"
	"slices"
	"strings"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

// Tabs of the send page.
const (
	TabBulk   = "bulk"
	TabSingle = "single"
)

// Operator-facing messages.
const (
	MsgNoTemplate    = "Please select a template"
	MsgNoRecipients  = "At least one recipient is required"
	MsgNoEmail       = "Recipient email is required for single email sending"
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgSingleSent    = "Email sent successfully"
	MsgSendFailed    = "Error sending email(s)"
	MsgLoadTemplates = "Failed to load templates"
	MsgLoadContacts  = "Failed to load contacts"
)

// BulkForm is the bulk tab. Recipients are contact email addresses.
type BulkForm struct {
	Job        string   `form:"job"`
	TemplateID string   `form:"templateId" validate:"required"`
	Recipients []string `form:"recipients" validate:"min=1"`
	SelectAll  bool     `form:"selectAll"`
	VarKeys    []string `form:"varKey"`
	VarValues  []string `form:"varValue"`
}

// SingleForm is the single tab.
type SingleForm struct {
	Job        string   `form:"job"`
	TemplateID string   `form:"templateId" validate:"required"`
	Email      string   `form:"email" validate:"required"`
	VarKeys    []string `form:"varKey"`
	VarValues  []string `form:"varValue"`
}

// Variable is one key/value row of the custom variable editor.
type Variable struct {
	Key   string
	Value string
}

// Rows pairs up posted keys and values. A missing value counts as blank.
func Rows(keys, values []string) []Variable {
	rows := make([]Variable, 0, len(keys))
	for i, k := range keys {
		var v string
		if i < len(values) {
			v = values[i]
		}
		rows = append(rows, Variable{Key: k, Value: v})
	}
	return rows
}

// CustomVariables trims every row and drops rows whose key or value is
// blank. A later row wins over an earlier one with the same key.
func CustomVariables(rows []Variable) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		k, v := strings.TrimSpace(r.Key), strings.TrimSpace(r.Value)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Selection resolves the bulk recipient list against the contacts on offer.
// Select-all picks every contact. Otherwise only known addresses are kept,
// once each, in contact order. All reports whether every contact ended up
// selected, so select-all and the individual boxes never disagree.
func Selection(contacts []backend.Contact, selected []string, selectAll bool) (emails []string, all bool) {
	emails = []string{}
	for _, c := range contacts {
		if c.Email == "" || slices.Contains(emails, c.Email) {
			continue
		}
		if selectAll || slices.Contains(selected, c.Email) {
			emails = append(emails, c.Email)
		}
	}
	return emails, len(emails) > 0 && len(emails) == distinctEmails(contacts)
}

func distinctEmails(contacts []backend.Contact) int {
	seen := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			seen[c.Email] = struct{}{}
		}
	}
	return len(seen)
}

// Outcome is the result of a send, ready to be shown as a notification.
type Outcome struct {
	Successful int
	Failed     int
	Message    string
	Warning    bool
}

// BulkOutcome summarizes a bulk send.
func BulkOutcome(r *backend.BulkSendResult) Outcome {
	o := Outcome{Successful: len(r.Results.Successful), Failed: len(r.Results.Failed)}
	o.Message = fmt.Sprintf("Successfully sent to %d recipient(s)", o.Successful)
	if o.Failed > 0 {
		o.Message += fmt.Sprintf(". Failed: %d", o.Failed)
		o.Warning = true
	}
	return o
}
