package csrf

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/signup-otp/internal/middlewares/sessions"
	"github.com/khanghh/signup-otp/params"
)

const (
	FormFieldName = "_csrf"
	HeaderName    = "X-CSRF-Token"
)

var (
	ErrInvalidToken = errors.New("invalid CSRF token")
)

func Token(ctx *fiber.Ctx) string {
	return sessions.Get(ctx).CSRFToken
}

func Verify(ctx *fiber.Ctx) bool {
	token := ctx.Get(HeaderName)
	if token == "" {
		token = ctx.FormValue(FormFieldName)
	}

	session := sessions.Get(ctx)
	if session.CSRFToken == "" || time.Now().After(session.CSRFExpiresAt) {
		return false
	}
	return session.CSRFToken == token
}

func randomToken() string {
	const tokenLength = 32
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate CSRF token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func isSafeMethod(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}

// New issues a token for sessions without a valid one and rejects unsafe
// requests whose token does not match the session's.
func New() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !isSafeMethod(ctx.Method()) && !Verify(ctx) {
			return fiber.NewError(fiber.StatusForbidden, ErrInvalidToken.Error())
		}

		session := sessions.Get(ctx)
		if session.CSRFToken == "" || time.Now().After(session.CSRFExpiresAt) {
			session.CSRFToken = randomToken()
			session.CSRFExpiresAt = time.Now().Add(params.CSRFTokenExpiration)
			sessions.Set(ctx, session)
		}
		return ctx.Next()
	}
}
