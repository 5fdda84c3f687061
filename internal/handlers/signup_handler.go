package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/signup-otp/internal/render"
	"github.com/khanghh/signup-otp/internal/signup"
)

type SignupHandler struct {
	*FlowHandler
}

func NewSignupHandler(flowHandler *FlowHandler) *SignupHandler {
	return &SignupHandler{
		FlowHandler: flowHandler,
	}
}

func (h *SignupHandler) GetIndex(ctx *fiber.Ctx) error {
	return redirect(ctx, signupPath)
}

func (h *SignupHandler) GetSignup(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	pageData := render.NewSignupPageData(flow.View(), h.pageOptions(ctx))
	return render.RenderSignup(ctx, pageData)
}

func (h *SignupHandler) GetStatus(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	return ctx.JSON(render.NewStatusData(flow.View()))
}

func (h *SignupHandler) PostSignup(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	registrant := signup.Registrant{
		Name:        ctx.FormValue("name"),
		DateOfBirth: ctx.FormValue("dob"),
		Email:       ctx.FormValue("email"),
	}
	err := flow.SubmitDetails(ctx.UserContext(), registrant)
	return h.afterOperation(ctx, flow, err)
}

func (h *SignupHandler) PostVerify(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	code := signup.NormalizeCode(ctx.FormValue("otp"))
	err := flow.VerifyOTP(ctx.UserContext(), code)
	return h.afterOperation(ctx, flow, err)
}

func (h *SignupHandler) PostResend(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	err := flow.ResendOTP(ctx.UserContext())
	return h.afterOperation(ctx, flow, err)
}

func (h *SignupHandler) PostChangeEmail(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	err := flow.ChangeEmail()
	return h.afterOperation(ctx, flow, err)
}

func (h *SignupHandler) PostRestart(ctx *fiber.Ctx) error {
	flow := h.currentFlow(ctx)
	err := flow.Restart()
	return h.afterOperation(ctx, flow, err)
}
