package signup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/khanghh/signup-otp/params"
)

type Options struct {
	Codes     CodeService
	NewTicker TickerFunc
	Logger    *slog.Logger
}

// Controller drives one sign-up flow through details entry, OTP verification
// and success. Code generation and verification run with the lock released
// and the loading flag raised, so at most one of them is in flight and every
// other operation is refused until it finishes.
type Controller struct {
	id        string
	codes     CodeService
	newTicker TickerFunc
	logger    *slog.Logger

	mu         sync.Mutex
	state      FlowState
	registrant Registrant
	challenge  *OTPChallenge
	errMsg     string
	loading    bool
	countdown  *countdown
	closed     bool
	lastActive time.Time
}

func (c *Controller) ID() string {
	return c.id
}

// checkReady must be called with the lock held.
func (c *Controller) checkReady() error {
	if c.closed {
		return ErrFlowClosed
	}
	if c.loading {
		return ErrOperationInProgress
	}
	c.lastActive = time.Now()
	return nil
}

func (c *Controller) startCountdown() {
	c.stopCountdown()
	cd := newCountdown(c.newTicker(params.OTPCountdownInterval))
	c.countdown = cd
	go c.runCountdown(cd)
}

func (c *Controller) stopCountdown() {
	if c.countdown != nil {
		c.countdown.stop()
		c.countdown = nil
	}
}

func (c *Controller) runCountdown(cd *countdown) {
	defer close(cd.exited)
	for {
		select {
		case <-cd.done:
			return
		case <-cd.ticker.C():
			if !c.tick(cd) {
				return
			}
		}
	}
}

func (c *Controller) tick(cd *countdown) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown != cd {
		return false
	}
	if c.decrement() == 0 {
		c.stopCountdown()
		return false
	}
	return true
}

func (c *Controller) decrement() int {
	if c.state != StateAwaitingOTP || c.challenge == nil {
		return 0
	}
	if c.challenge.SecondsRemaining > 0 {
		c.challenge.SecondsRemaining--
	}
	return c.challenge.SecondsRemaining
}

// TickCountdown advances the resend countdown by one second and returns the
// seconds left. It has no effect outside of OTP verification.
func (c *Controller) TickCountdown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.decrement()
	if remaining == 0 {
		c.stopCountdown()
	}
	return remaining
}

// SubmitDetails validates the registrant and, when valid, issues a code and
// moves the flow to OTP verification.
func (c *Controller) SubmitDetails(ctx context.Context, registrant Registrant) error {
	c.mu.Lock()
	if err := c.checkReady(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state != StateDetails {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.registrant = registrant
	if verr := ValidateRegistrant(registrant); verr != nil {
		c.errMsg = verr.Message
		c.mu.Unlock()
		c.logger.Debug("Rejected sign-up details", "error", verr)
		return verr
	}
	c.errMsg = ""
	c.loading = true
	c.mu.Unlock()

	c.logger.Info("Form submitted", "name", registrant.Name, "dob", registrant.DateOfBirth, "email", registrant.Email)
	code, err := c.codes.Generate(ctx, registrant.Email)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return ErrFlowClosed
	}
	if err != nil {
		c.errMsg = MsgSendCodeFailed
		c.logger.Error("Could not generate OTP", "email", registrant.Email, "error", err)
		return fmt.Errorf("%w: %v", ErrCodeUnavailable, err)
	}
	c.challenge = &OTPChallenge{
		code:             code,
		SecondsRemaining: params.OTPResendCountdown,
	}
	c.state = StateAwaitingOTP
	c.startCountdown()
	return nil
}

// VerifyOTP compares the entered code with the one issued last.
func (c *Controller) VerifyOTP(ctx context.Context, enteredCode string) error {
	c.mu.Lock()
	if err := c.checkReady(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state != StateAwaitingOTP || c.challenge == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.challenge.EnteredCode = enteredCode
	if verr := validateCode(enteredCode); verr != nil {
		c.errMsg = verr.Message
		c.mu.Unlock()
		return verr
	}
	c.errMsg = ""
	c.loading = true
	expected := c.challenge.code
	c.mu.Unlock()

	ok, err := c.codes.Verify(ctx, expected, enteredCode)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return ErrFlowClosed
	}
	if err != nil {
		c.errMsg = MsgVerifyCodeFailed
		c.logger.Error("Could not verify OTP", "error", err)
		return fmt.Errorf("%w: %v", ErrCodeUnavailable, err)
	}
	if !ok {
		c.errMsg = MsgInvalidOTP
		return ErrOTPMismatch
	}
	c.stopCountdown()
	c.challenge = nil
	c.errMsg = ""
	c.state = StateSuccess
	c.logger.Info("Sign-up verified", "email", c.registrant.Email)
	return nil
}

// ResendOTP replaces the issued code once the countdown has run out.
func (c *Controller) ResendOTP(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkReady(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state != StateAwaitingOTP || c.challenge == nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if c.challenge.SecondsRemaining > 0 {
		c.mu.Unlock()
		return ErrResendNotAllowed
	}
	c.challenge.EnteredCode = ""
	c.errMsg = ""
	c.loading = true
	c.challenge.SecondsRemaining = params.OTPResendCountdown
	c.startCountdown()
	email := c.registrant.Email
	c.mu.Unlock()

	code, err := c.codes.Generate(ctx, email)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if c.closed {
		return ErrFlowClosed
	}
	if err != nil {
		c.errMsg = MsgSendCodeFailed
		c.logger.Error("Could not resend OTP", "email", email, "error", err)
		return fmt.Errorf("%w: %v", ErrCodeUnavailable, err)
	}
	c.challenge.code = code
	return nil
}

// ChangeEmail abandons the pending verification and goes back to the details
// form with the registrant kept for editing.
func (c *Controller) ChangeEmail() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return err
	}
	if c.state != StateAwaitingOTP {
		return ErrInvalidTransition
	}
	c.stopCountdown()
	c.challenge = nil
	c.errMsg = ""
	c.state = StateDetails
	return nil
}

// Restart clears everything and returns to an empty details form.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return err
	}
	c.stopCountdown()
	c.registrant = Registrant{}
	c.challenge = nil
	c.errMsg = ""
	c.state = StateDetails
	return nil
}

// CompleteViaIdentityProvider finishes the sign-up with an external login,
// skipping OTP verification.
func (c *Controller) CompleteViaIdentityProvider(result IdentityResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReady(); err != nil {
		return err
	}
	if c.state != StateDetails {
		return ErrInvalidTransition
	}

	provider := result.Provider
	if provider == "" {
		provider = "Identity provider"
	}
	loginErr := result.Err
	if loginErr == nil && result.Identity == nil {
		loginErr = ErrEmptyAssertion
	}
	if loginErr != nil {
		c.errMsg = fmt.Sprintf(MsgIdentityProviderFailed, provider)
		c.logger.Warn("Login failed", "provider", provider, "error", loginErr)
		return &IdentityProviderError{Provider: provider, Err: loginErr}
	}

	name := strings.TrimSpace(result.Identity.Name)
	if name == "" {
		name = params.DefaultIdentityName
	}
	c.registrant.Name = name
	if result.Identity.Email != "" {
		c.registrant.Email = result.Identity.Email
	}
	c.errMsg = ""
	c.state = StateSuccess
	c.logger.Info("Signed up with identity provider", "provider", provider, "name", name)
	return nil
}

// View returns a snapshot of the flow. Viewing counts as activity so a page
// that keeps polling holds its flow.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.lastActive = time.Now()
	}
	view := View{
		FlowID:       c.id,
		State:        c.state,
		Registrant:   c.registrant,
		ErrorMessage: c.errMsg,
		Loading:      c.loading,
	}
	if c.challenge != nil {
		view.EnteredCode = c.challenge.EnteredCode
		view.SecondsRemaining = c.challenge.SecondsRemaining
	}
	return view
}

// LastActive returns when the flow last accepted an operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Close tears the flow down. The countdown is stopped and later operations
// fail with ErrFlowClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCountdown()
	c.challenge = nil
	c.closed = true
}

func NewController(id string, opts Options) *Controller {
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		id:         id,
		codes:      opts.Codes,
		newTicker:  opts.NewTicker,
		logger:     opts.Logger.With("flow", id),
		state:      StateDetails,
		lastActive: time.Now(),
	}
}
