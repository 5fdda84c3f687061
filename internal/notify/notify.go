package notify

import (
	"context"
	"html"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/bytebufferpool"
)

const otpMessageTemplate = "otp-message"

// Message is a rendered notification addressed to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// ConsoleNotifier delivers verification codes by writing them to the log.
// It stands in for a mail transport during local sign-up testing.
type ConsoleNotifier struct {
	views      fiber.Views
	globalVars fiber.Map
	logger     *slog.Logger
}

func (n *ConsoleNotifier) renderText(templateName string, vars fiber.Map) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := n.views.Render(buf, templateName, vars); err != nil {
		return "", err
	}
	// the engine escapes for HTML, the body only ever goes to the log
	return strings.TrimSpace(html.UnescapeString(buf.String())), nil
}

func (n *ConsoleNotifier) OTPMessage(email string, code string) (*Message, error) {
	body, err := n.renderText(otpMessageTemplate, fiber.Map{
		"siteName": n.globalVars["siteName"],
		"email":    email,
		"code":     code,
	})
	if err != nil {
		return nil, err
	}
	return &Message{
		To:      email,
		Subject: "OTP Verification",
		Body:    body,
	}, nil
}

func (n *ConsoleNotifier) NotifyCode(ctx context.Context, email string, code string) error {
	msg, err := n.OTPMessage(email, code)
	if err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "Generated OTP", "to", msg.To, "subject", msg.Subject, "otp", code)
	n.logger.DebugContext(ctx, msg.Body)
	return nil
}

func NewConsoleNotifier(views fiber.Views, globalVars fiber.Map, logger *slog.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleNotifier{
		views:      views,
		globalVars: globalVars,
		logger:     logger,
	}
}
