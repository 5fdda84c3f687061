package render

import (
	"github.com/khanghh/signup-otp/internal/signup"
	"github.com/khanghh/signup-otp/params"
)

const (
	TemplateDetails   = "details"
	TemplateVerifyOTP = "verify-otp"
	TemplateSuccess   = "success"
)

// PageOptions carries request scoped values that are not part of the flow.
type PageOptions struct {
	CSRFToken      string
	GoogleClientID string
	OAuthLoginURLs map[string]string
}

type SignupPageData struct {
	Template         string
	FlowID           string
	State            string
	Name             string
	DateOfBirth      string
	Email            string
	DisplayName      string
	EnteredCode      string
	CodeLength       int
	SecondsRemaining int
	CanResend        bool
	ErrorMessage     string
	Loading          bool
	CSRFToken        string
	GoogleClientID   string
	OAuthLoginURLs   map[string]string
}

func templateFor(state signup.FlowState) string {
	switch state {
	case signup.StateAwaitingOTP:
		return TemplateVerifyOTP
	case signup.StateSuccess:
		return TemplateSuccess
	default:
		return TemplateDetails
	}
}

// NewSignupPageData maps a flow snapshot to the data of the page showing it.
func NewSignupPageData(view signup.View, opts PageOptions) SignupPageData {
	return SignupPageData{
		Template:         templateFor(view.State),
		FlowID:           view.FlowID,
		State:            view.State.String(),
		Name:             view.Registrant.Name,
		DateOfBirth:      view.Registrant.DateOfBirth,
		Email:            view.Registrant.Email,
		DisplayName:      view.DisplayName(),
		EnteredCode:      view.EnteredCode,
		CodeLength:       params.OTPCodeLength,
		SecondsRemaining: view.SecondsRemaining,
		CanResend:        view.CanResend(),
		ErrorMessage:     view.ErrorMessage,
		Loading:          view.Loading,
		CSRFToken:        opts.CSRFToken,
		GoogleClientID:   opts.GoogleClientID,
		OAuthLoginURLs:   opts.OAuthLoginURLs,
	}
}

// StatusData is the JSON form of a flow snapshot polled by the OTP page.
type StatusData struct {
	State            string `json:"state"`
	SecondsRemaining int    `json:"secondsRemaining"`
	CanResend        bool   `json:"canResend"`
	Loading          bool   `json:"loading"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

func NewStatusData(view signup.View) StatusData {
	return StatusData{
		State:            view.State.String(),
		SecondsRemaining: view.SecondsRemaining,
		CanResend:        view.CanResend(),
		Loading:          view.Loading,
		ErrorMessage:     view.ErrorMessage,
	}
}
