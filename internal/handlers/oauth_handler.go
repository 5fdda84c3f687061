package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/khanghh/signup-otp/internal/middlewares/sessions"
	"github.com/khanghh/signup-otp/internal/oauth"
	"github.com/khanghh/signup-otp/internal/signup"
	"github.com/khanghh/signup-otp/params"
)

type OAuthHandler struct {
	*FlowHandler
}

func NewOAuthHandler(flowHandler *FlowHandler) *OAuthHandler {
	return &OAuthHandler{
		FlowHandler: flowHandler,
	}
}

func (h *OAuthHandler) provider(ctx *fiber.Ctx) (oauth.IdentityProvider, error) {
	providerName := ctx.Params("provider")
	provider, ok := h.providers[providerName]
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%v: %s", oauth.ErrUnknownProvider, providerName))
	}
	return provider, nil
}

func identityResult(provider oauth.IdentityProvider, assertion *oauth.Assertion, err error) signup.IdentityResult {
	result := signup.IdentityResult{Provider: provider.DisplayName(), Err: err}
	if err == nil && assertion != nil {
		result.Identity = &signup.Identity{
			Subject: assertion.Subject,
			Name:    assertion.Name,
			Email:   assertion.Email,
			Picture: assertion.Picture,
		}
	}
	return result
}

func (h *OAuthHandler) complete(ctx *fiber.Ctx, provider oauth.IdentityProvider, assertion *oauth.Assertion, err error) error {
	flow := h.currentFlow(ctx)
	opErr := flow.CompleteViaIdentityProvider(identityResult(provider, assertion, err))
	return h.afterOperation(ctx, flow, opErr)
}

// GetLogin starts the authorization code flow.
func (h *OAuthHandler) GetLogin(ctx *fiber.Ctx) error {
	provider, err := h.provider(ctx)
	if err != nil {
		return err
	}
	if !provider.Configured() {
		return h.complete(ctx, provider, nil, oauth.ErrProviderNotConfigured)
	}

	session := sessions.Get(ctx)
	session.OAuthState = uuid.NewString()
	session.OAuthStateExpiresAt = time.Now().Add(params.OAuthStateExpiration)
	sessions.Set(ctx, session)
	return ctx.Redirect(provider.AuthCodeURL(session.OAuthState), fiber.StatusFound)
}

func (h *OAuthHandler) consumeState(ctx *fiber.Ctx) error {
	session := sessions.Get(ctx)
	expected, expiresAt := session.OAuthState, session.OAuthStateExpiresAt
	session.OAuthState = ""
	session.OAuthStateExpiresAt = time.Time{}
	sessions.Set(ctx, session)

	if expected == "" || time.Now().After(expiresAt) || ctx.Query("state") != expected {
		return ErrInvalidOAuthState
	}
	return nil
}

func (h *OAuthHandler) GetCallback(ctx *fiber.Ctx) error {
	provider, err := h.provider(ctx)
	if err != nil {
		return err
	}
	if err := h.consumeState(ctx); err != nil {
		return h.complete(ctx, provider, nil, err)
	}
	if reason := ctx.Query("error"); reason != "" {
		return h.complete(ctx, provider, nil, fmt.Errorf("%w: %s", ErrAuthorizationDenied, reason))
	}

	assertion, err := provider.Exchange(ctx.UserContext(), ctx.Query("code"))
	return h.complete(ctx, provider, assertion, err)
}

// PostCredential receives what the provider's sign-in button handed to the
// page: a credential on success, an error description otherwise.
func (h *OAuthHandler) PostCredential(ctx *fiber.Ctx) error {
	provider, err := h.provider(ctx)
	if err != nil {
		return err
	}
	if reason := ctx.FormValue("error"); reason != "" {
		return h.complete(ctx, provider, nil, fmt.Errorf("%w: %s", ErrSignInCancelled, reason))
	}

	credential := ctx.FormValue("credential")
	if credential == "" {
		return h.complete(ctx, provider, nil, nil)
	}
	assertion, err := provider.DecodeCredential(credential)
	return h.complete(ctx, provider, assertion, err)
}
