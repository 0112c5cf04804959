package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CampaignsService covers /campaigns.
type CampaignsService struct {
	c *Client
}

// Query returns the query string List sends for opts.
func (o CampaignListOptions) Query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.IncludeRecipients {
		q.Set("include", "recipients")
	}
	return q
}

// List returns campaigns matching opts.
func (s *CampaignsService) List(ctx context.Context, opts CampaignListOptions) (Page[Campaign], error) {
	body, err := s.c.doJSON(ctx, http.MethodGet, "/campaigns", opts.Query(), nil)
	if err != nil {
		return Page[Campaign]{}, err
	}
	return decodePage[Campaign](body, "campaigns")
}

// Get fetches one campaign.
func (s *CampaignsService) Get(ctx context.Context, id string) (*Campaign, error) {
	body, err := s.c.doJSON(ctx, http.MethodGet, "/campaigns/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[Campaign](body, "campaign")
}

// Create submits a finished draft. The template id is sent as "template".
func (s *CampaignsService) Create(ctx context.Context, in CreateCampaignInput) (*Campaign, error) {
	body, err := s.c.doJSON(ctx, http.MethodPost, "/campaigns", nil, in.payload())
	if err != nil {
		return nil, err
	}
	return decodeOne[Campaign](body, "campaign")
}

// Update edits a campaign. The backend rejects non-drafts with a 400.
func (s *CampaignsService) Update(ctx context.Context, id string, in UpdateCampaignInput) (*Campaign, error) {
	body, err := s.c.doJSON(ctx, http.MethodPut, "/campaigns/"+url.PathEscape(id), nil, in)
	if err != nil {
		return nil, err
	}
	return decodeOne[Campaign](body, "campaign")
}

// Delete removes a campaign. The backend rejects non-drafts with a 400.
func (s *CampaignsService) Delete(ctx context.Context, id string) error {
	_, err := s.c.doJSON(ctx, http.MethodDelete, "/campaigns/"+url.PathEscape(id), nil, nil)
	return err
}

// Execute triggers a backend-side send of the campaign.
func (s *CampaignsService) Execute(ctx context.Context, id string) (*ExecuteResult, error) {
	body, err := s.c.doJSON(ctx, http.MethodPost, "/campaigns/"+url.PathEscape(id)+"/execute", nil, nil)
	if err != nil {
		return nil, err
	}
	var result ExecuteResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decoding execute result: %w", err)
		}
	}
	return &result, nil
}
