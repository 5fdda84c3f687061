package oauth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

const (
	ProviderGoogle = "google"
)

var (
	ErrProviderNotConfigured = errors.New("identity provider is not configured")
	ErrUnknownProvider       = errors.New("unknown identity provider")
	ErrInvalidCredential     = errors.New("invalid identity credential")
	ErrAudienceMismatch      = errors.New("credential was issued for another client")
	ErrUserInfoUnavailable   = errors.New("could not fetch user info")
)

type OAuthToken = oauth2.Token

// Assertion is what a provider vouches for about the signed in user.
type Assertion struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityProvider is a third-party login. A user can come back from it
// either through the authorization code flow or with a signed credential
// handed over by the provider's sign-in button.
type IdentityProvider interface {
	Name() string
	DisplayName() string
	ClientID() string
	Configured() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Assertion, error)
	DecodeCredential(credential string) (*Assertion, error)
}

func MakeProvidersMap(providers ...IdentityProvider) map[string]IdentityProvider {
	providersMap := make(map[string]IdentityProvider)
	for _, provider := range providers {
		providersMap[provider.Name()] = provider
	}
	return providersMap
}
