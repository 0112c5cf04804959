package campaigns

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/flash"
	"github.com/keyxmakerx/mailroom/internal/middleware"
	"github.com/keyxmakerx/mailroom/internal/templates/layouts"
)

// contextKeyCampaign is the Echo context key for the resolved campaign.
const contextKeyCampaign = "campaign"

// LoadCampaign returns middleware that resolves the campaign named by the
// :id URL parameter and stores it in the Echo context for downstream
// handlers.
func LoadCampaign(service CampaignService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Param("id")
			if id == "" {
				return apperror.NewBadRequest("campaign ID is required")
			}

			campaign, err := service.Get(c.Request().Context(), id)
			if err != nil {
				return err
			}

			c.Set(contextKeyCampaign, campaign)
			return next(c)
		}
	}
}

// RequireDraft sends the operator back to the list with an explanation
// when the loaded campaign is no longer a draft.
//
// Must be applied AFTER LoadCampaign.
func RequireDraft() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			campaign := GetCampaign(c)
			if campaign == nil {
				return apperror.NewInternal(fmt.Errorf("RequireDraft used without LoadCampaign"))
			}
			if !campaign.IsDraft() {
				layouts.Flash(c, flash.Error, MsgOnlyDraftUpdate)
				return middleware.Redirect(c, "/campaigns")
			}
			return next(c)
		}
	}
}

// GetCampaign retrieves the campaign resolved by LoadCampaign, or nil.
func GetCampaign(c echo.Context) *backend.Campaign {
	campaign, _ := c.Get(contextKeyCampaign).(*backend.Campaign)
	return campaign
}
