package models

import "encoding/json"

// PaymentProvider identifies a payout provider on the marketplace backend.
type PaymentProvider string

const (
	StripeConnect PaymentProvider = "stripe-connect"
	AdyenConnect  PaymentProvider = "adyen-connect"
)

// ConnectionStatus is what the vendor sees for a provider.
type ConnectionStatus string

const (
	NotConnected ConnectionStatus = "not connected"
	Pending      ConnectionStatus = "pending"
	Connected    ConnectionStatus = "connected"
)

type OnboardingData struct {
	URL string `json:"url,omitempty"`
}

type Onboarding struct {
	ID   string         `json:"id,omitempty"`
	Data OnboardingData `json:"data"`
}

type VerificationError struct {
	Code               string              `json:"code"`
	Type               string              `json:"type"`
	Message            string              `json:"message"`
	Capabilities       []string            `json:"capabilities,omitempty"`
	RemediatingActions []RemediatingAction `json:"remediatingActions,omitempty"`
}

type RemediatingAction struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PayoutAccount keeps provider-specific data raw; only the verification errors are
// decoded because the CLI prints them.
type PayoutAccount struct {
	ID                string          `json:"id"`
	PaymentProviderID PaymentProvider `json:"payment_provider_id"`
	Status            string          `json:"status,omitempty"`
	Onboarding        *Onboarding     `json:"onboarding,omitempty"`
	Data              json.RawMessage `json:"data,omitempty"`
}

type PayoutAccountsResponse struct {
	PayoutAccounts []PayoutAccount `json:"payout_accounts"`
}

type PayoutAccountResponse struct {
	PayoutAccount PayoutAccount `json:"payout_account"`
}

type CreatePayoutAccountRequest struct {
	PaymentProviderID PaymentProvider        `json:"payment_provider_id"`
	Context           map[string]interface{} `json:"context"`
}

type OnboardingContext struct {
	RefreshURL string `json:"refresh_url"`
	ReturnURL  string `json:"return_url"`
}

type CreateOnboardingRequest struct {
	PaymentProviderID PaymentProvider   `json:"payment_provider_id"`
	Context           OnboardingContext `json:"context"`
}
