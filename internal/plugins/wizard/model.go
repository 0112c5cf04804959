// Package wizard assembles a new campaign over four linear steps: naming,
// template, recipients and schedule. The draft lives in Redis between
// requests so the operator can move back and forth and resubmit after a
// backend failure without losing anything.
package wizard

import (
	"slices"
	"strings"
	"time"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

// Step is a wizard state.
type Step int

const (
	StepNaming Step = iota
	StepTemplate
	StepRecipients
	StepSchedule
)

// Steps lists the wizard states in order.
var Steps = []Step{StepNaming, StepTemplate, StepRecipients, StepSchedule}

func (s Step) String() string {
	switch s {
	case StepNaming:
		return "Campaign name"
	case StepTemplate:
		return "Template"
	case StepRecipients:
		return "Recipients"
	case StepSchedule:
		return "Schedule"
	}
	return "Unknown"
}

// Operator-facing messages, one per rule.
const (
	MsgNameTooShort   = "Name must be at least 3 characters"
	MsgNoTemplate     = "Please select a template"
	MsgNoRecipients   = "At least one recipient is required"
	MsgDateOutOfRange = "Please choose one of the offered dates"
)

// Draft is a campaign being assembled. It carries the option lists fetched
// when the wizard started so every step renders from the same snapshot.
type Draft struct {
	ID            string    `json:"id"`
	Operator      string    `json:"operator"`
	Step          Step      `json:"step"`
	Name          string    `json:"name"`
	TemplateID    string    `json:"templateId"`
	Recipients    []string  `json:"recipients"`
	SelectAll     bool      `json:"selectAll"`
	ScheduledDate string    `json:"scheduledDate"`
	CreatedAt     time.Time `json:"createdAt"`

	Loaded    bool               `json:"loaded"`
	Templates []backend.Template `json:"templates"`
	Contacts  []backend.Contact  `json:"contacts"`
}

// Back moves to the previous step. It is never refused and stops at the
// first step.
func (d *Draft) Back() {
	if d.Step > StepNaming {
		d.Step--
	}
}

// Next validates the current step and advances on success. On failure the
// step is unchanged and one message per violated rule is returned.
func (d *Draft) Next(scheduleDays []string) apperror.FieldErrors {
	if errs := d.validateStep(d.Step, scheduleDays); errs != nil {
		return errs
	}
	if d.Step < StepSchedule {
		d.Step++
	}
	return nil
}

// Validate checks every step up to and including the schedule step.
func (d *Draft) Validate(scheduleDays []string) apperror.FieldErrors {
	var all apperror.FieldErrors
	for _, s := range Steps {
		for k, v := range d.validateStep(s, scheduleDays) {
			if all == nil {
				all = apperror.FieldErrors{}
			}
			all[k] = v
		}
	}
	return all
}

type namingRules struct {
	Name string `form:"name" validate:"min=3"`
}

type templateRules struct {
	TemplateID string `form:"templateId" validate:"required"`
}

type recipientRules struct {
	Recipients []string `form:"recipients" validate:"min=1"`
}

var ruleMessages = validate.Messages{
	"name.min":            MsgNameTooShort,
	"templateId.required": MsgNoTemplate,
	"recipients.min":      MsgNoRecipients,
}

func (d *Draft) validateStep(s Step, scheduleDays []string) apperror.FieldErrors {
	switch s {
	case StepNaming:
		return validate.Struct(namingRules{Name: strings.TrimSpace(d.Name)}, ruleMessages)
	case StepTemplate:
		return validate.Struct(templateRules{TemplateID: d.TemplateID}, ruleMessages)
	case StepRecipients:
		return validate.Struct(recipientRules{Recipients: d.Recipients}, ruleMessages)
	case StepSchedule:
		if d.ScheduledDate != "" && !slices.Contains(scheduleDays, d.ScheduledDate) {
			return apperror.FieldErrors{"scheduledDate": MsgDateOutOfRange}
		}
	}
	return nil
}

// SetSelectAll selects every fetched contact, or none.
func (d *Draft) SetSelectAll(on bool) {
	d.SelectAll = on
	if !on {
		d.Recipients = []string{}
		return
	}
	d.Recipients = make([]string, 0, len(d.Contacts))
	for _, c := range d.Contacts {
		d.Recipients = append(d.Recipients, c.ID)
	}
}

// SetRecipient selects or deselects one contact. Repeating a toggle is a
// no-op. Select-all follows: it clears when anything is deselected and sets
// once every contact is selected.
func (d *Draft) SetRecipient(id string, on bool) {
	if !d.hasContact(id) {
		return
	}
	i := slices.Index(d.Recipients, id)
	switch {
	case on && i < 0:
		d.Recipients = append(d.Recipients, id)
	case !on && i >= 0:
		d.Recipients = slices.Delete(d.Recipients, i, i+1)
	}
	d.SelectAll = len(d.Contacts) > 0 && d.allSelected()
}

// IsSelected reports whether contact id is a recipient.
func (d *Draft) IsSelected(id string) bool {
	return slices.Contains(d.Recipients, id)
}

func (d *Draft) hasContact(id string) bool {
	return slices.ContainsFunc(d.Contacts, func(c backend.Contact) bool { return c.ID == id })
}

func (d *Draft) allSelected() bool {
	for _, c := range d.Contacts {
		if !slices.Contains(d.Recipients, c.ID) {
			return false
		}
	}
	return true
}

// Template returns the selected template, if it is among the options.
func (d *Draft) Template() *backend.Template {
	for i := range d.Templates {
		if d.Templates[i].ID == d.TemplateID {
			return &d.Templates[i]
		}
	}
	return nil
}

// Input converts the draft into the backend create payload.
func (d *Draft) Input() backend.CreateCampaignInput {
	return backend.CreateCampaignInput{
		Name:          strings.TrimSpace(d.Name),
		TemplateID:    d.TemplateID,
		Recipients:    slices.Clone(d.Recipients),
		ScheduledDate: d.ScheduledDate,
	}
}

// ScheduleDays returns the n calendar dates offered by the schedule step,
// starting with today, as YYYY-MM-DD.
func ScheduleDays(now time.Time, n int) []string {
	y, m, day := now.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(backend.DateLayout))
	}
	return out
}
