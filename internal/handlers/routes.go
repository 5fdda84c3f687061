package handlers

import "github.com/gofiber/fiber/v2"

func SetupRoutes(router fiber.Router, signupHandler *SignupHandler, oauthHandler *OAuthHandler) {
	router.Get("/", signupHandler.GetIndex)

	router.Get("/signup", signupHandler.GetSignup)
	router.Get("/signup/status", signupHandler.GetStatus)
	router.Post("/signup", signupHandler.PostSignup)
	router.Post("/signup/verify", signupHandler.PostVerify)
	router.Post("/signup/resend", signupHandler.PostResend)
	router.Post("/signup/change-email", signupHandler.PostChangeEmail)
	router.Post("/signup/restart", signupHandler.PostRestart)

	router.Get("/oauth/:provider/login", oauthHandler.GetLogin)
	router.Get("/oauth/:provider/callback", oauthHandler.GetCallback)
	router.Post("/oauth/:provider/credential", oauthHandler.PostCredential)
}
