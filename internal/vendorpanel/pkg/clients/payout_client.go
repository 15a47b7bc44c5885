package clients

import (
	"context"
	"net/http"

	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/pkg/logger"
	"gomarketplace_vendor/pkg/middleware"
)

const payoutAccountEndpoint = "/vendor/payout-account"

type PayoutClient struct {
	BaseClient
}

func NewPayoutClient(cfg ClientConfig, log *logger.BaseLogger) *PayoutClient {
	return &PayoutClient{
		BaseClient: *NewBaseClient(cfg, log, "[PayoutClient]"),
	}
}

func (c *PayoutClient) Accounts(ctx context.Context) ([]models.PayoutAccount, error) {
	var resp models.PayoutAccountsResponse
	err := c.do(middleware.WithRoute(ctx, "payout.accounts"), http.MethodGet, payoutAccountEndpoint, nil, &resp)
	return resp.PayoutAccounts, err
}

func (c *PayoutClient) CreateAccount(ctx context.Context, req models.CreatePayoutAccountRequest) (*models.PayoutAccount, error) {
	var resp models.PayoutAccountResponse
	if err := c.do(middleware.WithRoute(ctx, "payout.create"), http.MethodPost, payoutAccountEndpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp.PayoutAccount, nil
}

// CreateOnboarding asks the provider for a hosted onboarding session; the returned
// account carries the URL in Onboarding.Data.URL.
func (c *PayoutClient) CreateOnboarding(ctx context.Context, req models.CreateOnboardingRequest) (*models.PayoutAccount, error) {
	var resp models.PayoutAccountResponse
	if err := c.do(middleware.WithRoute(ctx, "payout.onboarding"), http.MethodPost, payoutAccountEndpoint+"/onboarding", req, &resp); err != nil {
		return nil, err
	}
	return &resp.PayoutAccount, nil
}
