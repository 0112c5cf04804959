// Package audit records what the operator did through the console. Every
// successful mutation against the backend (campaign execution, template and
// contact changes, imports, sends) and every sign-in is captured as an Entry
// in the audit_log table. The backend keeps its own records; this log only
// answers "who pressed what, and when" for the console itself.
//
// The plugin is optional: without a configured database the service is a
// no-op and the activity page explains that auditing is off.
package audit

import "time"

// --- Action Constants ---
// Each action string follows the pattern "resource.verb" for consistent
// filtering and display grouping.

const (
	ActionCampaignCreated  = "campaign.created"
	ActionCampaignUpdated  = "campaign.updated"
	ActionCampaignDeleted  = "campaign.deleted"
	ActionCampaignExecuted = "campaign.executed"

	ActionTemplateCreated = "template.created"
	ActionTemplateUpdated = "template.updated"
	ActionTemplateDeleted = "template.deleted"

	ActionContactCreated  = "contact.created"
	ActionContactUpdated  = "contact.updated"
	ActionContactDeleted  = "contact.deleted"
	ActionContactImported = "contact.imported"

	ActionEmailBulkSent   = "email.bulk_sent"
	ActionEmailSingleSent = "email.single_sent"

	ActionSessionLogin  = "session.login"
	ActionSessionLogout = "session.logout"
)

// Resource types. Must match the ENUM on audit_log.resource_type.
const (
	ResourceCampaign = "campaign"
	ResourceTemplate = "template"
	ResourceContact  = "contact"
	ResourceEmail    = "email"
	ResourceSession  = "session"
)

// Resources lists every valid resource type in ENUM order.
var Resources = []string{ResourceCampaign, ResourceTemplate, ResourceContact, ResourceEmail, ResourceSession}

// validResource reports whether r is one of Resources.
func validResource(r string) bool {
	for _, v := range Resources {
		if v == r {
			return true
		}
	}
	return false
}

// Entry is a single recorded action. Details holds action-specific
// metadata such as import counts or the number of recipients.
type Entry struct {
	ID           int64          `json:"id"`
	Operator     string         `json:"operator"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId,omitempty"`
	ResourceName string         `json:"resourceName,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	RemoteIP     string         `json:"remoteIp,omitempty"`
	RequestID    string         `json:"requestId,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// ListFilter narrows the activity feed.
type ListFilter struct {
	// ResourceType, when set, limits the feed to one resource type.
	ResourceType string

	// ResourceID, when set, limits the feed to one resource.
	ResourceID string
}
