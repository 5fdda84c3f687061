package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/signup-otp/internal/middlewares/csrf"
	"github.com/khanghh/signup-otp/internal/middlewares/sessions"
	"github.com/khanghh/signup-otp/internal/oauth"
	"github.com/khanghh/signup-otp/internal/render"
	"github.com/khanghh/signup-otp/internal/signup"
)

const signupPath = "/signup"

// FlowHandler binds each browser session to one sign-up flow.
type FlowHandler struct {
	flows     FlowRegistry
	providers map[string]oauth.IdentityProvider
}

func NewFlowHandler(flows FlowRegistry, providers ...oauth.IdentityProvider) *FlowHandler {
	return &FlowHandler{
		flows:     flows,
		providers: oauth.MakeProvidersMap(providers...),
	}
}

// currentFlow returns the session's flow, starting a new one when the session
// has none or its flow was torn down.
func (h *FlowHandler) currentFlow(ctx *fiber.Ctx) *signup.Controller {
	session := sessions.Get(ctx)
	if session.HasFlow() {
		flow, err := h.flows.Get(session.FlowID)
		if err == nil {
			return flow
		}
		slog.Debug("Session flow is gone", "flow", session.FlowID, "error", err)
	}

	flow := h.flows.Create()
	session.FlowID = flow.ID()
	sessions.Set(ctx, session)
	return flow
}

func (h *FlowHandler) pageOptions(ctx *fiber.Ctx) render.PageOptions {
	opts := render.PageOptions{
		CSRFToken:      csrf.Token(ctx),
		OAuthLoginURLs: make(map[string]string),
	}
	for name, provider := range h.providers {
		if !provider.Configured() {
			continue
		}
		opts.OAuthLoginURLs[name] = "/oauth/" + name + "/login"
		if name == oauth.ProviderGoogle {
			opts.GoogleClientID = provider.ClientID()
		}
	}
	return opts
}

// afterOperation sends the browser back to the sign-up page when the flow
// absorbed the outcome. Anything else goes to the error handler.
func (h *FlowHandler) afterOperation(ctx *fiber.Ctx, flow *signup.Controller, err error) error {
	if !signup.IsRecoverable(err) {
		return err
	}
	if err != nil {
		level := slog.LevelDebug
		if errors.Is(err, signup.ErrCodeUnavailable) {
			level = slog.LevelWarn
		}
		slog.Log(ctx.UserContext(), level, "Sign-up operation rejected", "flow", flow.ID(), "path", ctx.Path(), "error", err)
	}
	return redirect(ctx, signupPath)
}
