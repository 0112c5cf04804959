package sendmail

import (
	"context"
	"strings"

	"github.com/badoux/checkmail"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

// TemplateLister supplies the template options.
type TemplateLister interface {
	List(ctx context.Context) ([]backend.Template, error)
}

// ContactLister supplies the bulk recipient options.
type ContactLister interface {
	All(ctx context.Context) ([]backend.Contact, error)
}

// EmailSender is the backend's ad hoc send API.
type EmailSender interface {
	SendBulk(ctx context.Context, in backend.BulkSendInput) (*backend.BulkSendResult, error)
	SendSingle(ctx context.Context, in backend.SingleSendInput) (*backend.SendResult, error)
}

// Options are the choices offered by the send page.
type Options struct {
	Templates []backend.Template
	Contacts  []backend.Contact
}

// SendService sends templates outside of campaigns. Prepare* validates a
// form and builds the request without touching the network; Send* performs
// the call.
type SendService interface {
	Options(ctx context.Context) (Options, error)
	PrepareBulk(ctx context.Context, form *BulkForm) (backend.BulkSendInput, error)
	SendBulk(ctx context.Context, in backend.BulkSendInput) (Outcome, error)
	PrepareSingle(form *SingleForm) (backend.SingleSendInput, error)
	SendSingle(ctx context.Context, in backend.SingleSendInput) (Outcome, error)
}

type sendService struct {
	templates TemplateLister
	contacts  ContactLister
	emails    EmailSender
}

// NewSendService creates a send service.
func NewSendService(templates TemplateLister, contacts ContactLister, emails EmailSender) SendService {
	return &sendService{templates: templates, contacts: contacts, emails: emails}
}

var formMessages = validate.Messages{
	"templateId.required": MsgNoTemplate,
	"recipients.min":      MsgNoRecipients,
	"email.required":      MsgNoEmail,
}

// Options loads templates and contacts in parallel.
func (s *sendService) Options(ctx context.Context) (Options, error) {
	var opts Options
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		templates, err := s.templates.List(gctx)
		if err != nil {
			return apperror.FromBackend(err, MsgLoadTemplates)
		}
		opts.Templates = templates
		return nil
	})
	g.Go(func() error {
		contacts, err := s.contacts.All(gctx)
		if err != nil {
			return apperror.FromBackend(err, MsgLoadContacts)
		}
		opts.Contacts = contacts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// PrepareBulk resolves the selection against the current contacts and
// validates. form is updated with the resolved selection so a re-rendered
// form shows what was actually submitted.
func (s *sendService) PrepareBulk(ctx context.Context, form *BulkForm) (backend.BulkSendInput, error) {
	contacts, err := s.contacts.All(ctx)
	if err != nil {
		return backend.BulkSendInput{}, apperror.FromBackend(err, MsgLoadContacts)
	}
	form.Recipients, form.SelectAll = Selection(contacts, form.Recipients, form.SelectAll)

	if errs := validate.Struct(form, formMessages); errs != nil {
		return backend.BulkSendInput{}, apperror.NewFieldValidation(errs)
	}
	return backend.BulkSendInput{
		TemplateID:      form.TemplateID,
		Recipients:      form.Recipients,
		CustomVariables: CustomVariables(Rows(form.VarKeys, form.VarValues)),
	}, nil
}

func (s *sendService) SendBulk(ctx context.Context, in backend.BulkSendInput) (Outcome, error) {
	result, err := s.emails.SendBulk(ctx, in)
	if err != nil {
		return Outcome{}, apperror.FromBackend(err, MsgSendFailed)
	}
	return BulkOutcome(result), nil
}

// PrepareSingle validates the template choice and the typed address.
func (s *sendService) PrepareSingle(form *SingleForm) (backend.SingleSendInput, error) {
	form.Email = strings.TrimSpace(form.Email)

	errs := validate.Struct(form, formMessages)
	if _, missing := errs["email"]; !missing && checkmail.ValidateFormat(form.Email) != nil {
		if errs == nil {
			errs = apperror.FieldErrors{}
		}
		errs["email"] = MsgInvalidEmail
	}
	if errs != nil {
		return backend.SingleSendInput{}, apperror.NewFieldValidation(errs)
	}
	return backend.SingleSendInput{
		TemplateID:      form.TemplateID,
		Email:           form.Email,
		CustomVariables: CustomVariables(Rows(form.VarKeys, form.VarValues)),
	}, nil
}

func (s *sendService) SendSingle(ctx context.Context, in backend.SingleSendInput) (Outcome, error) {
	if _, err := s.emails.SendSingle(ctx, in); err != nil {
		return Outcome{}, apperror.FromBackend(err, MsgSendFailed)
	}
	return Outcome{Successful: 1, Message: MsgSingleSent}, nil
}
