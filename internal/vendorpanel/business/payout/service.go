package payout

import (
	"context"
	"errors"
	"fmt"

	"gomarketplace_vendor/internal/vendorpanel/models"
	"gomarketplace_vendor/pkg/logger"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrNoOnboardingURL = errors.New("onboarding response carries no url")
)

type AccountsAPI interface {
	Accounts(ctx context.Context) ([]models.PayoutAccount, error)
	CreateAccount(ctx context.Context, req models.CreatePayoutAccountRequest) (*models.PayoutAccount, error)
	CreateOnboarding(ctx context.Context, req models.CreateOnboardingRequest) (*models.PayoutAccount, error)
}

type ProviderStatus struct {
	Provider    models.PaymentProvider
	Status      models.ConnectionStatus
	Account     *models.PayoutAccount
	LegalEntity *LegalEntity
}

type Service struct {
	api AccountsAPI
	log logger.Logger
}

func NewService(api AccountsAPI, log logger.Logger) *Service {
	return &Service{api: api, log: log}
}

// Overview reports every provider, connected or not.
func (s *Service) Overview(ctx context.Context) ([]ProviderStatus, error) {
	accounts, err := s.api.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payout accounts: %w", err)
	}

	out := make([]ProviderStatus, 0, len(Providers))
	for _, provider := range Providers {
		account := FindAccount(accounts, provider)
		ps := ProviderStatus{Provider: provider, Status: StatusOf(provider, account), Account: account}
		if account != nil {
			entity, err := DecodeLegalEntity(account.Data)
			if err != nil {
				// The status is still worth showing without the details.
				s.log.Warn("payout account %s: %s", account.ID, err)
			}
			ps.LegalEntity = entity
		}
		out = append(out, ps)
	}
	return out, nil
}

func (s *Service) Connect(ctx context.Context, provider models.PaymentProvider) (*models.PayoutAccount, error) {
	if _, err := ParseProvider(string(provider)); err != nil {
		return nil, err
	}
	account, err := s.api.CreateAccount(ctx, models.CreatePayoutAccountRequest{
		PaymentProviderID: provider,
		Context:           map[string]interface{}{},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s payout account: %w", provider, err)
	}
	s.log.Log("created %s payout account %s", provider, account.ID)
	return account, nil
}

// Onboard starts a hosted onboarding session and returns its URL. The provider sends
// the vendor back to returnURL, also when the session has to be refreshed.
func (s *Service) Onboard(ctx context.Context, provider models.PaymentProvider, returnURL string) (string, error) {
	if _, err := ParseProvider(string(provider)); err != nil {
		return "", err
	}
	account, err := s.api.CreateOnboarding(ctx, models.CreateOnboardingRequest{
		PaymentProviderID: provider,
		Context:           models.OnboardingContext{RefreshURL: returnURL, ReturnURL: returnURL},
	})
	if err != nil {
		return "", fmt.Errorf("start %s onboarding: %w", provider, err)
	}
	if account.Onboarding == nil || account.Onboarding.Data.URL == "" {
		return "", ErrNoOnboardingURL
	}
	return account.Onboarding.Data.URL, nil
}
