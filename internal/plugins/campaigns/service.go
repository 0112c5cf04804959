package campaigns

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

// backendDraftOnlyUpdate is the backend's 400 body for editing a non-draft.
const backendDraftOnlyUpdate = "Can only update draft campaigns"

// overviewPageLimit is the page size used when walking every campaign.
const overviewPageLimit = 100

// CampaignStore is the backend surface this plugin needs.
// *backend.CampaignsService satisfies it.
type CampaignStore interface {
	List(ctx context.Context, opts backend.CampaignListOptions) (backend.Page[backend.Campaign], error)
	Get(ctx context.Context, id string) (*backend.Campaign, error)
	Create(ctx context.Context, in backend.CreateCampaignInput) (*backend.Campaign, error)
	Update(ctx context.Context, id string, in backend.UpdateCampaignInput) (*backend.Campaign, error)
	Delete(ctx context.Context, id string) error
	Execute(ctx context.Context, id string) (*backend.ExecuteResult, error)
}

// CampaignService defines the business logic contract for campaigns.
// Handlers, the wizard, the dashboard and the CLI call these methods.
type CampaignService interface {
	List(ctx context.Context, q ListQuery) (backend.Page[backend.Campaign], error)
	Overview(ctx context.Context, status backend.Status, search string) ([]backend.Campaign, error)
	Get(ctx context.Context, id string) (*backend.Campaign, error)
	Create(ctx context.Context, in backend.CreateCampaignInput) (*backend.Campaign, error)
	Update(ctx context.Context, id string, form EditForm) (*backend.Campaign, error)
	Delete(ctx context.Context, id string) error
	Execute(ctx context.Context, id string) (*backend.ExecuteResult, error)
}

// campaignService reads straight from the backend on every call. Status
// and statistics move on the backend (a send in progress, a scheduled
// campaign going out) without any write passing through here, so list
// pages are never cached.
type campaignService struct {
	store    CampaignStore
	pageSize int
}

// NewCampaignService creates a campaign service.
func NewCampaignService(store CampaignStore, pageSize int) CampaignService {
	if pageSize < 1 {
		pageSize = 10
	}
	return &campaignService{store: store, pageSize: pageSize}
}

// List returns one page of campaigns.
func (s *campaignService) List(ctx context.Context, q ListQuery) (backend.Page[backend.Campaign], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	opts := backend.CampaignListOptions{
		Page:   q.Page,
		Limit:  s.pageSize,
		Status: q.Status,
		Search: strings.TrimSpace(q.Search),
	}

	page, err := s.store.List(ctx, opts)
	if err != nil {
		return page, apperror.FromBackend(err, "Failed to fetch campaigns")
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	return page, nil
}

// Overview returns every campaign matching the filters with recipients
// populated, for aggregate statistics.
func (s *campaignService) Overview(ctx context.Context, status backend.Status, search string) ([]backend.Campaign, error) {
	base := backend.CampaignListOptions{
		Limit:             overviewPageLimit,
		Status:            status,
		Search:            strings.TrimSpace(search),
		IncludeRecipients: true,
	}

	var all []backend.Campaign
	for p := 1; ; p++ {
		opts := base
		opts.Page = p
		page, err := s.store.List(ctx, opts)
		if err != nil {
			return nil, apperror.FromBackend(err, "Failed to fetch campaigns")
		}
		all = append(all, page.Items...)
		if !page.HasNext() || len(page.Items) == 0 {
			return all, nil
		}
	}
}

func (s *campaignService) Get(ctx context.Context, id string) (*backend.Campaign, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to fetch campaign")
	}
	return c, nil
}

// Create submits an already-validated draft.
func (s *campaignService) Create(ctx context.Context, in backend.CreateCampaignInput) (*backend.Campaign, error) {
	c, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to create campaign")
	}
	return c, nil
}

// Update edits a draft. Only the backend's draft-only rejection is reworded;
// any other 400 keeps the backend's own message.
func (s *campaignService) Update(ctx context.Context, id string, form EditForm) (*backend.Campaign, error) {
	form.trim()
	if errs := validate.Struct(form, validate.Messages{
		"templateId.required":    "Please select a template",
		"scheduledDate.datetime": "Scheduled date must be a valid date",
	}); errs != nil {
		return nil, apperror.NewFieldValidation(errs)
	}

	c, err := s.store.Update(ctx, id, backend.UpdateCampaignInput{
		Name:          form.Name,
		TemplateID:    form.TemplateID,
		RecipientTags: splitTags(form.RecipientTags),
		ScheduledDate: form.ScheduledDate,
	})
	if err != nil {
		if isDraftOnlyUpdate(err) {
			return nil, apperror.NewConflict(MsgOnlyDraftUpdate)
		}
		return nil, apperror.FromBackend(err, "Failed to update campaign")
	}
	return c, nil
}

func isDraftOnlyUpdate(err error) bool {
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusBadRequest &&
		apiErr.Message == backendDraftOnlyUpdate
}

// Delete removes a draft. A 400 from the backend means it is not a draft.
func (s *campaignService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if backend.IsStatus(err, http.StatusBadRequest) {
			return apperror.NewConflict(MsgOnlyDraftDelete)
		}
		return apperror.FromBackend(err, "Failed to delete campaign")
	}
	return nil
}

// Execute asks the backend to send the campaign now.
func (s *campaignService) Execute(ctx context.Context, id string) (*backend.ExecuteResult, error) {
	res, err := s.store.Execute(ctx, id)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to execute campaign")
	}
	return res, nil
}
