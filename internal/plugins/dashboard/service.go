package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
)

// CampaignOverview returns every campaign matching a filter with recipients
// populated.
type CampaignOverview interface {
	Overview(ctx context.Context, status backend.Status, search string) ([]backend.Campaign, error)
}

// ContactLister returns the whole address book.
type ContactLister interface {
	All(ctx context.Context) ([]backend.Contact, error)
}

// DashboardService builds the overview page.
type DashboardService interface {
	Summary(ctx context.Context, f Filter) (Summary, error)
}

type dashboardService struct {
	campaigns CampaignOverview
	contacts  ContactLister
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(campaigns CampaignOverview, contacts ContactLister) DashboardService {
	return &dashboardService{campaigns: campaigns, contacts: contacts}
}

// Summary fetches campaigns and contacts in parallel and aggregates them.
// Either failure fails the whole page.
func (s *dashboardService) Summary(ctx context.Context, f Filter) (Summary, error) {
	f = f.Normalize()

	var campaigns []backend.Campaign
	var contacts []backend.Contact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaigns, err = s.campaigns.Overview(gctx, f.Status, f.Search)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.contacts.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, apperror.FromBackend(err, MsgLoadFailed)
	}
	return Summarize(campaigns, contacts), nil
}
