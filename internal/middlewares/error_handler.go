package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/signup-otp/internal/render"
)

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("Unhandled error", "method", ctx.Method(), "path", ctx.Path(), "code", code, "error", err)
	} else {
		slog.Debug("Request rejected", "method", ctx.Method(), "path", ctx.Path(), "code", code, "error", err)
	}
	if ctx.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return ctx.Status(code).JSON(fiber.Map{"error": statusMessage(code)})
	}
	return render.RenderError(ctx, code)
}

func statusMessage(code int) string {
	return fiber.NewError(code).Message
}
