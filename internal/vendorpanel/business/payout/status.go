package payout

import (
	"encoding/json"
	"fmt"
	"sort"

	"gomarketplace_vendor/internal/vendorpanel/models"
)

// Providers in the order the panel lists them.
var Providers = []models.PaymentProvider{models.StripeConnect, models.AdyenConnect}

func ParseProvider(name string) (models.PaymentProvider, error) {
	for _, p := range Providers {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// FindAccount returns the account of provider, or nil.
func FindAccount(accounts []models.PayoutAccount, provider models.PaymentProvider) *models.PayoutAccount {
	for i := range accounts {
		if accounts[i].PaymentProviderID == provider {
			return &accounts[i]
		}
	}
	return nil
}

// StatusOf derives what the vendor sees. Stripe accounts count as connected once an
// onboarding exists; Adyen reports its own status.
func StatusOf(provider models.PaymentProvider, account *models.PayoutAccount) models.ConnectionStatus {
	if account == nil {
		return models.NotConnected
	}
	switch provider {
	case models.StripeConnect:
		if account.Onboarding == nil {
			return models.Pending
		}
		return models.Connected
	default:
		if account.Status == "" {
			return models.NotConnected
		}
		return models.ConnectionStatus(account.Status)
	}
}

type capability struct {
	Allowed            bool   `json:"allowed"`
	VerificationStatus string `json:"verificationStatus"`
}

// LegalEntity is the part of an Adyen account's data the CLI prints.
type LegalEntity struct {
	Organization struct {
		LegalName          string `json:"legalName"`
		RegistrationNumber string `json:"registrationNumber"`
		Phone              struct {
			Number string `json:"number"`
		} `json:"phone"`
	} `json:"organization"`
	TransferInstruments []struct {
		AccountIdentifier string `json:"accountIdentifier"`
	} `json:"transferInstruments"`
	Capabilities map[string]capability `json:"capabilities"`
	Problems     []struct {
		VerificationErrors []models.VerificationError `json:"verificationErrors"`
	} `json:"problems"`
}

// DecodeLegalEntity reads data.legal_entity; an account without one yields nil.
func DecodeLegalEntity(data json.RawMessage) (*LegalEntity, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var wrapper struct {
		LegalEntity *LegalEntity `json:"legal_entity"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode legal entity: %w", err)
	}
	return wrapper.LegalEntity, nil
}

// VerificationErrors of the first reported problem.
func (e *LegalEntity) VerificationErrors() []models.VerificationError {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e.Problems[0].VerificationErrors
}

// ActiveCapabilities lists, sorted, the capabilities that are allowed and verified.
func (e *LegalEntity) ActiveCapabilities() []string {
	if e == nil {
		return nil
	}
	var active []string
	for name, c := range e.Capabilities {
		if c.Allowed && c.VerificationStatus == "valid" {
			active = append(active, name)
		}
	}
	sort.Strings(active)
	return active
}

func (e *LegalEntity) BankAccount() string {
	if e == nil || len(e.TransferInstruments) == 0 {
		return ""
	}
	return e.TransferInstruments[0].AccountIdentifier
}
