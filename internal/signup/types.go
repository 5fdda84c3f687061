package signup

import "fmt"

// FlowState is the step a sign-up flow is currently in.
type FlowState int

const (
	StateDetails FlowState = iota
	StateAwaitingOTP
	StateSuccess
)

func (s FlowState) String() string {
	switch s {
	case StateDetails:
		return "details"
	case StateAwaitingOTP:
		return "otp"
	case StateSuccess:
		return "success"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

func (s FlowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Registrant holds the details entered on the sign-up form.
type Registrant struct {
	Name        string `validate:"required"`
	DateOfBirth string `validate:"required"`
	Email       string `validate:"required,basicemail"`
}

// OTPChallenge is the pending verification of a registrant's email. The
// expected code never leaves the controller.
type OTPChallenge struct {
	code             string
	EnteredCode      string
	SecondsRemaining int
}

// Identity is what an identity provider asserted about the user.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// IdentityResult is the outcome of an identity provider login: exactly one of
// Identity and Err is set.
type IdentityResult struct {
	Provider string
	Identity *Identity
	Err      error
}

// View is a point-in-time snapshot of a flow used by renderers.
type View struct {
	FlowID           string
	State            FlowState
	Registrant       Registrant
	EnteredCode      string
	SecondsRemaining int
	ErrorMessage     string
	Loading          bool
}

func (v View) CanResend() bool {
	return v.State == StateAwaitingOTP && v.SecondsRemaining == 0
}

func (v View) DisplayName() string {
	return v.Registrant.Name
}
