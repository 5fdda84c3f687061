package render

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

const mainLayout = "layouts/main"

//go:embed templates
var templateFS embed.FS

var globalVars fiber.Map

func InitValues(data fiber.Map) {
	globalVars = data
}

// NewHtmlEngine loads templates from templateDir, or from the embedded set
// when templateDir is empty.
func NewHtmlEngine(templateDir string) *html.Engine {
	if templateDir != "" {
		return html.NewFileSystem(http.Dir(templateDir), ".html")
	}
	renderFS, _ := fs.Sub(templateFS, "templates")
	return html.NewFileSystem(http.FS(renderFS), ".html")
}

func RenderSignup(ctx *fiber.Ctx, data SignupPageData) error {
	return ctx.Render(data.Template, fiber.Map{
		"siteName":         globalVars["siteName"],
		"csrfToken":        data.CSRFToken,
		"flowID":           data.FlowID,
		"state":            data.State,
		"name":             data.Name,
		"dateOfBirth":      data.DateOfBirth,
		"email":            data.Email,
		"displayName":      data.DisplayName,
		"enteredCode":      data.EnteredCode,
		"codeLength":       data.CodeLength,
		"secondsRemaining": data.SecondsRemaining,
		"canResend":        data.CanResend,
		"errorMessage":     data.ErrorMessage,
		"loading":          data.Loading,
		"googleClientID":   data.GoogleClientID,
		"googleLoginURL":   data.OAuthLoginURLs["google"],
	}, mainLayout)
}

func RenderError(ctx *fiber.Ctx, statusCode int) error {
	return ctx.Status(statusCode).Render("error", fiber.Map{
		"siteName":   globalVars["siteName"],
		"statusCode": statusCode,
		"message":    errorMessage(statusCode),
	}, mainLayout)
}

func errorMessage(statusCode int) string {
	switch statusCode {
	case fiber.StatusBadRequest:
		return "The request could not be understood."
	case fiber.StatusForbidden:
		return "Your session has expired. Please reload the page and try again."
	case fiber.StatusNotFound:
		return "The page you are looking for does not exist."
	default:
		return "Something went wrong. Please try again later."
	}
}
