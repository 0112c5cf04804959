package backend

import (
	"context"
	"net/http"
	"net/url"
)

// TemplatesService covers /templates.
type TemplatesService struct {
	c *Client
}

// List returns every template.
func (s *TemplatesService) List(ctx context.Context) ([]Template, error) {
	body, err := s.c.doJSON(ctx, http.MethodGet, "/templates", nil, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[Template](body, "templates")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Get fetches one template.
func (s *TemplatesService) Get(ctx context.Context, id string) (*Template, error) {
	body, err := s.c.doJSON(ctx, http.MethodGet, "/templates/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Template](body, "template")
}

// Create stores a new template.
func (s *TemplatesService) Create(ctx context.Context, in TemplateInput) (*Template, error) {
	body, err := s.c.doJSON(ctx, http.MethodPost, "/templates", nil, in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Template](body, "template")
}

// Update replaces a template's fields.
func (s *TemplatesService) Update(ctx context.Context, id string, in TemplateInput) (*Template, error) {
	body, err := s.c.doJSON(ctx, http.MethodPut, "/templates/"+url.PathEscape(id), nil, in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Template](body, "template")
}

// Delete removes a template.
func (s *TemplatesService) Delete(ctx context.Context, id string) error {
	_, err := s.c.doJSON(ctx, http.MethodDelete, "/templates/"+url.PathEscape(id), nil, nil)
	return err
}
