package handlers

import "errors"

var (
	ErrInvalidOAuthState   = errors.New("invalid or expired oauth state")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrSignInCancelled     = errors.New("sign-in cancelled")
)
