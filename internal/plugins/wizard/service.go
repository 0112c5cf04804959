package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
)

// TemplateLister supplies the template step's options.
type TemplateLister interface {
	List(ctx context.Context) ([]backend.Template, error)
}

// ContactLister supplies the recipient step's options.
type ContactLister interface {
	All(ctx context.Context) ([]backend.Contact, error)
}

// CampaignCreator submits a finished draft.
type CampaignCreator interface {
	Create(ctx context.Context, in backend.CreateCampaignInput) (*backend.Campaign, error)
}

// Fields are the step inputs posted with next and submit. Only the fields
// belonging to the current step are applied.
type Fields struct {
	Name          string `form:"name"`
	TemplateID    string `form:"templateId"`
	ScheduledDate string `form:"scheduledDate"`
}

// WizardService runs the campaign wizard.
type WizardService interface {
	Start(ctx context.Context, operator string) (*Draft, error)
	Get(ctx context.Context, operator, id string) (*Draft, error)
	Next(ctx context.Context, operator, id string, f Fields) (*Draft, apperror.FieldErrors, error)
	Back(ctx context.Context, operator, id string, f Fields) (*Draft, error)
	SetRecipient(ctx context.Context, operator, id, contactID string, on bool) (*Draft, error)
	SetSelectAll(ctx context.Context, operator, id string, on bool) (*Draft, error)
	Submit(ctx context.Context, operator, id string, f Fields) (*Draft, *backend.Campaign, apperror.FieldErrors, error)
	ScheduleDays() []string
}

type wizardService struct {
	drafts    DraftStore
	templates TemplateLister
	contacts  ContactLister
	campaigns CampaignCreator
	days      int
	now       func() time.Time
}

// NewWizardService creates a wizard service offering scheduleDays dates.
func NewWizardService(drafts DraftStore, templates TemplateLister, contacts ContactLister, campaigns CampaignCreator, scheduleDays int) WizardService {
	if scheduleDays < 1 {
		scheduleDays = 31
	}
	return &wizardService{
		drafts:    drafts,
		templates: templates,
		contacts:  contacts,
		campaigns: campaigns,
		days:      scheduleDays,
		now:       time.Now,
	}
}

// Start creates an empty draft. Its options are loaded on first Get.
func (s *wizardService) Start(ctx context.Context, operator string) (*Draft, error) {
	d := &Draft{
		ID:         uuid.NewString(),
		Operator:   operator,
		Step:       StepNaming,
		Recipients: []string{},
		CreatedAt:  s.now().UTC(),
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return d, nil
}

// Get returns a draft and loads its options if that has not succeeded yet.
// A load failure is returned together with the draft so the page can show
// the error and offer a retry with the draft intact.
func (s *wizardService) Get(ctx context.Context, operator, id string) (*Draft, error) {
	d, err := s.fetch(ctx, operator, id)
	if err != nil {
		return nil, err
	}
	return d, s.load(ctx, d)
}

func (s *wizardService) Next(ctx context.Context, operator, id string, f Fields) (*Draft, apperror.FieldErrors, error) {
	d, err := s.fetch(ctx, operator, id)
	if err != nil {
		return nil, nil, err
	}
	applyFields(d, f)
	errs := d.Next(s.ScheduleDays())
	return d, errs, s.save(ctx, d)
}

// Back keeps whatever was typed on the current step and moves back.
func (s *wizardService) Back(ctx context.Context, operator, id string, f Fields) (*Draft, error) {
	d, err := s.fetch(ctx, operator, id)
	if err != nil {
		return nil, err
	}
	applyFields(d, f)
	d.Back()
	return d, s.save(ctx, d)
}

func (s *wizardService) SetRecipient(ctx context.Context, operator, id, contactID string, on bool) (*Draft, error) {
	d, err := s.fetch(ctx, operator, id)
	if err != nil {
		return nil, err
	}
	d.SetRecipient(contactID, on)
	return d, s.save(ctx, d)
}

func (s *wizardService) SetSelectAll(ctx context.Context, operator, id string, on bool) (*Draft, error) {
	d, err := s.fetch(ctx, operator, id)
	if err != nil {
		return nil, err
	}
	d.SetSelectAll(on)
	return d, s.save(ctx, d)
}

// Submit re-validates the whole draft and creates the campaign. Nothing is
// sent to the backend while any rule fails. The draft is discarded only on
// success.
func (s *wizardService) Submit(ctx context.Context, operator, id string, f Fields) (*Draft, *backend.Campaign, apperror.FieldErrors, error) {
	d, err := s.fetch(ctx, operator, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if d.Step != StepSchedule {
		return d, nil, nil, apperror.NewBadRequest("Finish the earlier steps before creating the campaign")
	}
	applyFields(d, f)
	if err := s.save(ctx, d); err != nil {
		return d, nil, nil, err
	}

	if errs := d.Validate(s.ScheduleDays()); errs != nil {
		return d, nil, errs, nil
	}

	campaign, err := s.campaigns.Create(ctx, d.Input())
	if err != nil {
		return d, nil, nil, err
	}

	if err := s.drafts.Delete(ctx, operator, id); err != nil {
		slog.WarnContext(ctx, "discarding submitted draft", slog.String("draft", id), slog.Any("error", err))
	}
	return d, campaign, nil, nil
}

// ScheduleDays returns the dates the schedule step offers today.
func (s *wizardService) ScheduleDays() []string {
	return ScheduleDays(s.now(), s.days)
}

// load fetches templates and contacts in parallel. Both must succeed
// before the draft is marked loaded.
func (s *wizardService) load(ctx context.Context, d *Draft) error {
	if d.Loaded {
		return nil
	}

	var templates []backend.Template
	var contacts []backend.Contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		templates, err = s.templates.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.contacts.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperror.FromBackend(err, "Failed to load necessary data")
	}

	d.Templates = templates
	d.Contacts = contacts
	d.Loaded = true
	if d.SelectAll {
		d.SetSelectAll(true)
	}
	return s.save(ctx, d)
}

func (s *wizardService) fetch(ctx context.Context, operator, id string) (*Draft, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NewNotFound("This draft has expired. Please start a new campaign.")
	}
	d, err := s.drafts.Load(ctx, operator, id)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return d, nil
}

func (s *wizardService) save(ctx context.Context, d *Draft) error {
	if err := s.drafts.Save(ctx, d); err != nil {
		return apperror.NewInternal(fmt.Errorf("saving draft %s: %w", d.ID, err))
	}
	return nil
}

// applyFields copies the inputs of the draft's current step.
func applyFields(d *Draft, f Fields) {
	switch d.Step {
	case StepNaming:
		d.Name = f.Name
	case StepTemplate:
		d.TemplateID = f.TemplateID
	case StepSchedule:
		d.ScheduledDate = f.ScheduledDate
	}
}
