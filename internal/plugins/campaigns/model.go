// Package campaigns lists the backend's campaigns and drives their
// lifecycle from the console: execute, edit and delete. Campaign state is
// owned by the backend; the console only renders what it is told and maps
// business-rule rejections to operator-facing messages.
//
// New campaigns are assembled by the wizard plugin, which calls Create.
package campaigns

import (
	"strings"

	"github.com/keyxmakerx/mailroom/internal/backend"
)

// Operator-facing messages for business-rule rejections.
const (
	MsgOnlyDraftUpdate = "Only draft campaigns can be updated."
	MsgOnlyDraftDelete = "Only draft campaigns can be deleted"
	MsgExecuted        = "Campaign executed successfully"
)

// ListQuery selects a page of the campaign list.
type ListQuery struct {
	Page   int
	Status backend.Status
	Search string
}

// EditForm edits a draft campaign.
type EditForm struct {
	Name          string `form:"name" validate:"required,min=3,max=100"`
	TemplateID    string `form:"templateId" validate:"required"`
	ScheduledDate string `form:"scheduledDate" validate:"omitempty,datetime=2006-01-02"`
	RecipientTags string `form:"recipientTags"`
}

// FormFor returns the edit form for an existing campaign.
func FormFor(c *backend.Campaign) EditForm {
	f := EditForm{
		Name:          c.Name,
		TemplateID:    c.Template.ID,
		RecipientTags: strings.Join(c.RecipientTags, ", "),
	}
	if c.ScheduledDate != nil {
		f.ScheduledDate = c.ScheduledDate.String()
	}
	return f
}

func (f *EditForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.TemplateID = strings.TrimSpace(f.TemplateID)
	f.ScheduledDate = strings.TrimSpace(f.ScheduledDate)
}

// splitTags parses a comma-separated tag list, dropping blanks and repeats.
func splitTags(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Actions describes which lifecycle controls a campaign row offers.
type Actions struct {
	CanEdit   bool
	CanDelete bool
	// Reason explains disabled controls.
	Reason string
}

// ActionsFor returns the controls available for c. Only drafts may be
// edited or deleted; any campaign may be executed.
func ActionsFor(c backend.Campaign) Actions {
	if c.IsDraft() {
		return Actions{CanEdit: true, CanDelete: true}
	}
	return Actions{Reason: "Only draft campaigns can be edited or deleted."}
}
