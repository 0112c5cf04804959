package templates

import (
	"context"
	"maps"
	"net/url"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/cache"
	"github.com/keyxmakerx/mailroom/internal/render"
	"github.com/keyxmakerx/mailroom/internal/validate"
)

// cacheResource is the list cache namespace for templates.
const cacheResource = "templates"

// TemplateStore is the backend surface this plugin needs.
// *backend.TemplatesService satisfies it.
type TemplateStore interface {
	List(ctx context.Context) ([]backend.Template, error)
	Get(ctx context.Context, id string) (*backend.Template, error)
	Create(ctx context.Context, in backend.TemplateInput) (*backend.Template, error)
	Update(ctx context.Context, id string, in backend.TemplateInput) (*backend.Template, error)
	Delete(ctx context.Context, id string) error
}

// TemplateService is the template business logic used by handlers, the
// wizard, the send-mail view and the CLI.
type TemplateService interface {
	List(ctx context.Context) ([]backend.Template, error)
	Get(ctx context.Context, id string) (*backend.Template, error)
	Create(ctx context.Context, form TemplateForm) (*backend.Template, error)
	Update(ctx context.Context, id string, form TemplateForm) (*backend.Template, error)
	Delete(ctx context.Context, id string) error
	Preview(content string, values map[string]string) string
}

type templateService struct {
	store TemplateStore
	cache *cache.Cache
}

// NewTemplateService creates a template service. cache may be nil.
func NewTemplateService(store TemplateStore, c *cache.Cache) TemplateService {
	return &templateService{store: store, cache: c}
}

// List returns every template, through the list cache.
func (s *templateService) List(ctx context.Context) ([]backend.Template, error) {
	items, err := cache.Fetch(ctx, s.cache, cacheResource, url.Values{}, s.store.List)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to load templates")
	}
	return items, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*backend.Template, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to load template")
	}
	return t, nil
}

// Create validates form and stores a new template.
func (s *templateService) Create(ctx context.Context, form TemplateForm) (*backend.Template, error) {
	in, err := toInput(form)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to save template")
	}
	s.cache.Invalidate(ctx, cacheResource)
	return t, nil
}

// Update validates form and replaces the template.
func (s *templateService) Update(ctx context.Context, id string, form TemplateForm) (*backend.Template, error) {
	in, err := toInput(form)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, apperror.FromBackend(err, "Failed to save template")
	}
	s.cache.Invalidate(ctx, cacheResource)
	return t, nil
}

func (s *templateService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return apperror.FromBackend(err, "Failed to delete template")
	}
	s.cache.Invalidate(ctx, cacheResource)
	return nil
}

// Preview renders content with the sample values overlaid by values and
// returns sanitized HTML. Unknown placeholders stay literal.
func (s *templateService) Preview(content string, values map[string]string) string {
	vars := maps.Clone(SampleValues)
	for k, v := range values {
		if v != "" {
			vars[k] = v
		}
	}
	return render.Preview(content, vars)
}

// toInput validates the form and converts it to the wire payload.
func toInput(form TemplateForm) (backend.TemplateInput, error) {
	form.trim()
	if errs := validate.Struct(form, validate.Messages{
		"category.oneof":    "Please select a category",
		"category.required": "Please select a category",
	}); errs != nil {
		return backend.TemplateInput{}, apperror.NewFieldValidation(errs)
	}
	return backend.TemplateInput{
		Name:      form.Name,
		Subject:   render.NormalizePlaceholders(form.Subject),
		Content:   render.NormalizePlaceholders(form.Content),
		Category:  form.Category,
		Variables: ParseVariables(form.Variables),
	}, nil
}
