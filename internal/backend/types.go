package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// --- Contacts ---

// Contact is an addressable recipient owned by the backend.
type Contact struct {
	ID           string    `json:"_id,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Organization string    `json:"organization,omitempty"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// ContactInput is the create/update payload for a contact.
type ContactInput struct {
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Organization string   `json:"organization,omitempty"`
	Tags         []string `json:"tags"`
}

// ContactListOptions selects a page of contacts. Zero values are omitted
// from the query string.
type ContactListOptions struct {
	Page   int
	Limit  int
	Search string
}

// ImportResult is the backend's summary of a CSV import.
type ImportResult struct {
	Imported   int           `json:"imported"`
	Duplicates int           `json:"duplicates"`
	Errors     []ImportError `json:"errors"`
}

// ImportError describes one rejected row. The backend reports either a bare
// string or an object; both decode here.
type ImportError struct {
	Row     int    `json:"row,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

func (e *ImportError) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Message)
	}
	var raw struct {
		Row     int    `json:"row"`
		Line    int    `json:"line"`
		Email   string `json:"email"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Row = raw.Row
	if e.Row == 0 {
		e.Row = raw.Line
	}
	e.Email = raw.Email
	e.Message = raw.Message
	if e.Message == "" {
		e.Message = raw.Error
	}
	return nil
}

// --- Templates ---

// Template categories accepted by the backend.
const (
	CategoryGeneral      = "general"
	CategoryNewsletter   = "newsletter"
	CategoryPromotional  = "promotional"
	CategoryNotification = "notification"
)

// Categories lists the template categories in display order.
var Categories = []string{CategoryGeneral, CategoryNewsletter, CategoryPromotional, CategoryNotification}

// Template is a reusable message body with {{variable}} placeholders.
type Template struct {
	ID        string    `json:"_id,omitempty"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Variables []string  `json:"variables"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// TemplateInput is the create/update payload for a template.
type TemplateInput struct {
	Name      string   `json:"name"`
	Subject   string   `json:"subject"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Variables []string `json:"variables"`
}

// --- Campaigns ---

// Status is a persisted campaign's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Statuses lists every campaign status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusScheduled, StatusSending, StatusCompleted, StatusFailed}

// Campaign is a backend-owned campaign. The console never derives its state.
type Campaign struct {
	ID            string        `json:"_id"`
	Name          string        `json:"name"`
	Template      TemplateRef   `json:"template"`
	Recipients    []ContactRef  `json:"recipients"`
	RecipientTags []string      `json:"recipientTags,omitempty"`
	Status        Status        `json:"status"`
	ScheduledDate *Date         `json:"scheduledDate"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastExecuted  *time.Time    `json:"lastExecuted"`
	Stats         CampaignStats `json:"stats"`
}

// IsDraft reports whether the campaign may still be edited or deleted.
func (c Campaign) IsDraft() bool {
	return c.Status == StatusDraft
}

// Date is a scheduled date. The backend stores either a full timestamp or a
// bare calendar date depending on how the campaign was created.
type Date struct {
	time.Time
}

// DateLayout is the calendar-date format used on the wire and in forms.
const DateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding date: %w", err)
	}
	for _, layout := range []string{time.RFC3339Nano, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("decoding date: unrecognised format %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339Nano))
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// CampaignStats are the backend's delivery counters.
type CampaignStats struct {
	Sent   int `json:"sent"`
	Opened int `json:"opened"`
}

// TemplateRef is a campaign's template: either a bare id or a populated
// template document.
type TemplateRef struct {
	ID        string
	Name      string
	Subject   string
	Populated bool
}

func (r *TemplateRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = TemplateRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("decoding template reference: %w", err)
	}
	*r = TemplateRef{ID: t.ID, Name: t.Name, Subject: t.Subject, Populated: true}
	return nil
}

// MarshalJSON writes the same shape it was decoded from, so cached
// campaigns keep their populated fields.
func (r TemplateRef) MarshalJSON() ([]byte, error) {
	if !r.Populated {
		return json.Marshal(r.ID)
	}
	return json.Marshal(Template{ID: r.ID, Name: r.Name, Subject: r.Subject})
}

// ContactRef is a campaign recipient: either a bare id or a populated
// contact (when listed with include=recipients).
type ContactRef struct {
	Contact
	Populated bool `json:"-"`
}

func (r *ContactRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*r = ContactRef{}
		return json.Unmarshal(data, &r.ID)
	}
	var c Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("decoding recipient reference: %w", err)
	}
	*r = ContactRef{Contact: c, Populated: true}
	return nil
}

func (r ContactRef) MarshalJSON() ([]byte, error) {
	if !r.Populated {
		return json.Marshal(r.ID)
	}
	return json.Marshal(r.Contact)
}

// CreateCampaignInput is the console-side draft submitted to the backend.
type CreateCampaignInput struct {
	Name       string
	TemplateID string
	Recipients []string

	// ScheduledDate is a calendar date "YYYY-MM-DD"; empty means unscheduled.
	ScheduledDate string
}

// createCampaignPayload is the wire shape of CreateCampaignInput: the
// template id travels as "template" and a missing date as null.
type createCampaignPayload struct {
	Name          string   `json:"name"`
	Template      string   `json:"template"`
	Recipients    []string `json:"recipients"`
	ScheduledDate *string  `json:"scheduledDate"`
}

func (in CreateCampaignInput) payload() createCampaignPayload {
	p := createCampaignPayload{
		Name:       in.Name,
		Template:   in.TemplateID,
		Recipients: in.Recipients,
	}
	if p.Recipients == nil {
		p.Recipients = []string{}
	}
	if in.ScheduledDate != "" {
		d := in.ScheduledDate
		p.ScheduledDate = &d
	}
	return p
}

// UpdateCampaignInput edits a draft campaign.
type UpdateCampaignInput struct {
	Name          string   `json:"name"`
	TemplateID    string   `json:"templateId"`
	RecipientTags []string `json:"recipientTags,omitempty"`
	ScheduledDate string   `json:"scheduledDate,omitempty"`
}

// CampaignListOptions filters the campaign list. Zero values are omitted.
type CampaignListOptions struct {
	Page              int
	Limit             int
	Status            Status
	Search            string
	IncludeRecipients bool
}

// ExecuteResult is the backend's reply to an execute call.
type ExecuteResult struct {
	Message  string    `json:"message"`
	Campaign *Campaign `json:"campaign,omitempty"`
}

// --- Emails ---

// BulkSendInput sends one template to many addresses.
type BulkSendInput struct {
	TemplateID      string            `json:"templateId"`
	Recipients      []string          `json:"recipients"`
	CustomVariables map[string]string `json:"customVariables"`
}

// SingleSendInput sends one template to one address.
type SingleSendInput struct {
	TemplateID      string            `json:"templateId"`
	Email           string            `json:"email"`
	CustomVariables map[string]string `json:"customVariables"`
}

// SendOutcome is one recipient's delivery outcome. Decodes from either an
// address string or an object.
type SendOutcome struct {
	Email string `json:"email"`
	Error string `json:"error,omitempty"`
}

func (o *SendOutcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*o = SendOutcome{}
		return json.Unmarshal(data, &o.Email)
	}
	var raw struct {
		Email     string `json:"email"`
		Recipient string `json:"recipient"`
		Error     string `json:"error"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Email = raw.Email
	if o.Email == "" {
		o.Email = raw.Recipient
	}
	o.Error = raw.Error
	if o.Error == "" {
		o.Error = raw.Message
	}
	return nil
}

// BulkSendResult lists per-recipient outcomes of a bulk send.
type BulkSendResult struct {
	Message string `json:"message"`
	Results struct {
		Successful []SendOutcome `json:"successful"`
		Failed     []SendOutcome `json:"failed"`
	} `json:"results"`
}

// SendResult is the reply to a single send.
type SendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
}
