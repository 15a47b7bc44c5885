package clients

import "net/http"

type AuthEngine interface {
	SetApiKey(request *http.Request)
}

type BearerAuth struct {
	apiKey string
}

func (b *BearerAuth) SetApiKey(request *http.Request) {
	request.Header.Set("Authorization", "Bearer "+b.apiKey)
}

// NewBearerAuth returns nil for an empty token; BaseClient then sends no Authorization header.
func NewBearerAuth(apiKey string) *BearerAuth {
	if apiKey == "" {
		return nil
	}
	return &BearerAuth{apiKey: apiKey}
}
