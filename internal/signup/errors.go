package signup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOperationInProgress = errors.New("another operation is in progress")
	ErrInvalidTransition   = errors.New("operation not allowed in current state")
	ErrResendNotAllowed    = errors.New("resend not allowed before countdown ends")
	ErrOTPMismatch         = errors.New("otp mismatch")
	ErrCodeUnavailable     = errors.New("verification code unavailable")
	ErrFlowClosed          = errors.New("flow closed")
	ErrFlowNotFound        = errors.New("flow not found")
	ErrEmptyAssertion      = errors.New("identity provider returned no assertion")
)

const (
	MsgInvalidDetails         = "Please fill in all fields with valid information."
	MsgOTPLength              = "OTP must be 6 digits."
	MsgInvalidOTP             = "Invalid OTP. Please try again."
	MsgIdentityProviderFailed = "%s login failed. Please try again."
	MsgSendCodeFailed         = "Could not send verification code. Please try again."
	MsgVerifyCodeFailed       = "Could not verify the code. Please try again."
)

// ValidationError reports missing or malformed input. Message is shown to the
// user, Fields maps field names to what is wrong with them.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range sortedKeys(e.Fields) {
		parts = append(parts, e.Fields[field])
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

type IdentityProviderError struct {
	Provider string
	Err      error
}

func (e *IdentityProviderError) Error() string {
	return fmt.Sprintf("%s login failed: %v", e.Provider, e.Err)
}

func (e *IdentityProviderError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err left the flow in a valid state with the
// failure already recorded for display.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var validationErr *ValidationError
	var providerErr *IdentityProviderError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &providerErr):
		return true
	case errors.Is(err, ErrOTPMismatch),
		errors.Is(err, ErrOperationInProgress),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrResendNotAllowed),
		errors.Is(err, ErrCodeUnavailable),
		errors.Is(err, ErrFlowClosed):
		return true
	}
	return false
}
