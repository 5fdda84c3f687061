package signup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCodeService struct {
	mu        sync.Mutex
	codes     []string
	generated []string
	genErr    error
	block     chan struct{}
}

func (s *fakeCodeService) Generate(ctx context.Context, email string) (string, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.genErr != nil {
		return "", s.genErr
	}
	code := "999999"
	if len(s.generated) < len(s.codes) {
		code = s.codes[len(s.generated)]
	}
	s.generated = append(s.generated, code)
	return code, nil
}

func (s *fakeCodeService) Verify(ctx context.Context, expected string, entered string) (bool, error) {
	return expected == entered, nil
}

func (s *fakeCodeService) generatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.generated)
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire delivers one tick and reports whether a countdown goroutine took it.
func (t *fakeTicker) fire() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

type tickerRecorder struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (r *tickerRecorder) New(d time.Duration) Ticker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	r.tickers = append(r.tickers, t)
	return t
}

func (r *tickerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickers)
}

func (r *tickerRecorder) last() *fakeTicker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickers[len(r.tickers)-1]
}

func currentCountdown(c *Controller) *countdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown
}

func waitExited(t *testing.T, cd *countdown) {
	t.Helper()
	select {
	case <-cd.exited:
	case <-time.After(time.Second):
		t.Fatal("countdown goroutine did not exit")
	}
}

var validRegistrant = Registrant{Name: "Ann", DateOfBirth: "2000-01-01", Email: "ann@x.com"}

func newTestController(codes *fakeCodeService) (*Controller, *tickerRecorder) {
	tickers := &tickerRecorder{}
	c := NewController("test", Options{Codes: codes, NewTicker: tickers.New})
	return c, tickers
}

func TestSubmitDetailsRejectsInvalidRegistrant(t *testing.T) {
	tests := []struct {
		name       string
		registrant Registrant
	}{
		{"missing name", Registrant{DateOfBirth: "2000-01-01", Email: "ann@x.com"}},
		{"missing dob", Registrant{Name: "Ann", Email: "ann@x.com"}},
		{"missing email", Registrant{Name: "Ann", DateOfBirth: "2000-01-01"}},
		{"email without at", Registrant{Name: "Ann", DateOfBirth: "2000-01-01", Email: "ann.x.com"}},
		{"email without dot", Registrant{Name: "Ann", DateOfBirth: "2000-01-01", Email: "ann@x"}},
		{"all empty", Registrant{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := &fakeCodeService{}
			c, tickers := newTestController(codes)

			err := c.SubmitDetails(context.Background(), tt.registrant)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)

			view := c.View()
			require.Equal(t, StateDetails, view.State)
			require.Equal(t, MsgInvalidDetails, view.ErrorMessage)
			require.False(t, view.Loading)
			require.Equal(t, tt.registrant, view.Registrant)
			require.Zero(t, codes.generatedCount())
			require.Zero(t, tickers.count())
		})
	}
}

func TestSubmitDetailsIssuesCode(t *testing.T) {
	codes := &fakeCodeService{codes: []string{"123456"}}
	c, tickers := newTestController(codes)

	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	view := c.View()
	require.Equal(t, StateAwaitingOTP, view.State)
	require.Equal(t, 60, view.SecondsRemaining)
	require.False(t, view.Loading)
	require.Empty(t, view.ErrorMessage)
	require.False(t, view.CanResend())
	require.Equal(t, "123456", c.challenge.code)
	require.Equal(t, 1, tickers.count())
}

func TestSubmitDetailsClearsPreviousError(t *testing.T) {
	c, _ := newTestController(&fakeCodeService{})

	require.Error(t, c.SubmitDetails(context.Background(), Registrant{Name: "Ann"}))
	require.NotEmpty(t, c.View().ErrorMessage)

	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))
	require.Empty(t, c.View().ErrorMessage)
}

func TestSubmitDetailsCodeServiceFailure(t *testing.T) {
	c, tickers := newTestController(&fakeCodeService{genErr: errors.New("boom")})

	err := c.SubmitDetails(context.Background(), validRegistrant)
	require.ErrorIs(t, err, ErrCodeUnavailable)
	require.True(t, IsRecoverable(err))

	view := c.View()
	require.Equal(t, StateDetails, view.State)
	require.Equal(t, MsgSendCodeFailed, view.ErrorMessage)
	require.False(t, view.Loading)
	require.Zero(t, tickers.count())
}

func TestTickCountdownNeverGoesBelowZero(t *testing.T) {
	c, tickers := newTestController(&fakeCodeService{})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	for i := 59; i >= 0; i-- {
		require.Equal(t, i, c.TickCountdown())
	}
	require.Equal(t, 0, c.TickCountdown())
	require.Equal(t, 0, c.View().SecondsRemaining)
	require.True(t, c.View().CanResend())
	require.True(t, tickers.last().isStopped())
}

func TestTickCountdownOutsideVerification(t *testing.T) {
	c, _ := newTestController(&fakeCodeService{})
	require.Equal(t, 0, c.TickCountdown())
	require.Equal(t, StateDetails, c.View().State)
}

func TestCountdownFollowsTicker(t *testing.T) {
	c, tickers := newTestController(&fakeCodeService{})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	ticker := tickers.last()
	require.True(t, ticker.fire())
	require.True(t, ticker.fire())
	require.Eventually(t, func() bool {
		return c.View().SecondsRemaining == 58
	}, time.Second, 5*time.Millisecond)
}

func TestCountdownStopsWhenLeavingVerification(t *testing.T) {
	c, tickers := newTestController(&fakeCodeService{})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))
	ticker := tickers.last()
	cd := currentCountdown(c)

	require.NoError(t, c.ChangeEmail())
	require.True(t, ticker.isStopped())
	waitExited(t, cd)
	require.False(t, ticker.fire())

	view := c.View()
	require.Equal(t, StateDetails, view.State)
	require.Equal(t, validRegistrant, view.Registrant)
	require.Zero(t, view.SecondsRemaining)
	require.Nil(t, c.challenge)
}

func TestCountdownStopsOnClose(t *testing.T) {
	c, tickers := newTestController(&fakeCodeService{})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))
	ticker := tickers.last()
	cd := currentCountdown(c)

	c.Close()
	require.True(t, ticker.isStopped())
	waitExited(t, cd)
	require.False(t, ticker.fire())
	require.ErrorIs(t, c.Restart(), ErrFlowClosed)
	require.ErrorIs(t, c.SubmitDetails(context.Background(), validRegistrant), ErrFlowClosed)
}

func TestStaleTickIsDropped(t *testing.T) {
	c, _ := newTestController(&fakeCodeService{})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))
	stale := currentCountdown(c)

	c.mu.Lock()
	c.challenge.SecondsRemaining = 0
	c.mu.Unlock()
	require.NoError(t, c.ResendOTP(context.Background()))
	require.NotSame(t, stale, currentCountdown(c))

	require.False(t, c.tick(stale))
	view := c.View()
	require.Equal(t, StateAwaitingOTP, view.State)
	require.Equal(t, 60, view.SecondsRemaining)
	waitExited(t, stale)
}

func TestViewKeepsFlowActive(t *testing.T) {
	c, _ := newTestController(&fakeCodeService{})
	past := time.Now().Add(-time.Hour)
	c.mu.Lock()
	c.lastActive = past
	c.mu.Unlock()

	c.View()
	require.True(t, c.LastActive().After(past))

	c.Close()
	c.mu.Lock()
	c.lastActive = past
	c.mu.Unlock()
	c.View()
	require.Equal(t, past, c.LastActive())
}

func TestVerifyOTP(t *testing.T) {
	codes := &fakeCodeService{codes: []string{"482913"}}
	c, tickers := newTestController(codes)
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	err := c.VerifyOTP(context.Background(), "48291")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, StateAwaitingOTP, c.View().State)
	require.Equal(t, MsgOTPLength, c.View().ErrorMessage)

	err = c.VerifyOTP(context.Background(), "000000")
	require.ErrorIs(t, err, ErrOTPMismatch)
	view := c.View()
	require.Equal(t, StateAwaitingOTP, view.State)
	require.Equal(t, MsgInvalidOTP, view.ErrorMessage)
	require.Equal(t, "000000", view.EnteredCode)
	require.False(t, view.Loading)

	require.NoError(t, c.VerifyOTP(context.Background(), "482913"))
	view = c.View()
	require.Equal(t, StateSuccess, view.State)
	require.Empty(t, view.ErrorMessage)
	require.Nil(t, c.challenge)
	require.True(t, tickers.last().isStopped())
}

func TestVerifyOTPOutsideVerification(t *testing.T) {
	c, _ := newTestController(&fakeCodeService{})
	require.ErrorIs(t, c.VerifyOTP(context.Background(), "123456"), ErrInvalidTransition)
	require.ErrorIs(t, c.ResendOTP(context.Background()), ErrInvalidTransition)
	require.ErrorIs(t, c.ChangeEmail(), ErrInvalidTransition)
}

func TestResendOTP(t *testing.T) {
	codes := &fakeCodeService{codes: []string{"111111", "222222"}}
	c, tickers := newTestController(codes)
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	require.ErrorIs(t, c.ResendOTP(context.Background()), ErrResendNotAllowed)
	require.Equal(t, "111111", c.challenge.code)

	require.ErrorIs(t, c.VerifyOTP(context.Background(), "123456"), ErrOTPMismatch)
	for c.TickCountdown() > 0 {
	}
	first := tickers.last()

	require.NoError(t, c.ResendOTP(context.Background()))
	view := c.View()
	require.Equal(t, StateAwaitingOTP, view.State)
	require.Equal(t, 60, view.SecondsRemaining)
	require.Empty(t, view.EnteredCode)
	require.Empty(t, view.ErrorMessage)
	require.False(t, view.Loading)
	require.Equal(t, "222222", c.challenge.code)
	require.True(t, first.isStopped())
	require.Equal(t, 2, tickers.count())
	require.False(t, tickers.last().isStopped())

	require.ErrorIs(t, c.VerifyOTP(context.Background(), "111111"), ErrOTPMismatch)
	require.NoError(t, c.VerifyOTP(context.Background(), "222222"))
}

func TestResendOTPProducesNewCode(t *testing.T) {
	c := NewController("resend", Options{
		Codes:     NewSimulatedCodeService(0, nil),
		NewTicker: (&tickerRecorder{}).New,
	})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	changed := 0
	for i := 0; i < 5; i++ {
		prev := c.challenge.code
		for c.TickCountdown() > 0 {
		}
		require.NoError(t, c.ResendOTP(context.Background()))
		if c.challenge.code != prev {
			changed++
		}
	}
	require.Greater(t, changed, 0)
}

func TestRestartFromSuccess(t *testing.T) {
	codes := &fakeCodeService{codes: []string{"654321"}}
	c, _ := newTestController(codes)
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))
	require.NoError(t, c.VerifyOTP(context.Background(), "654321"))

	require.NoError(t, c.Restart())
	view := c.View()
	require.Equal(t, StateDetails, view.State)
	require.Equal(t, Registrant{}, view.Registrant)
	require.Empty(t, view.ErrorMessage)
	require.Nil(t, c.challenge)
}

func TestRestartDuringVerification(t *testing.T) {
	c, tickers := newTestController(&fakeCodeService{})
	require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))

	require.NoError(t, c.Restart())
	require.True(t, tickers.last().isStopped())
	require.Equal(t, StateDetails, c.View().State)
	require.Equal(t, Registrant{}, c.View().Registrant)
}

func TestCompleteViaIdentityProvider(t *testing.T) {
	t.Run("assertion with name", func(t *testing.T) {
		c, _ := newTestController(&fakeCodeService{})
		err := c.CompleteViaIdentityProvider(IdentityResult{
			Provider: "Google",
			Identity: &Identity{Name: "Bob", Email: "bob@example.com"},
		})
		require.NoError(t, err)
		view := c.View()
		require.Equal(t, StateSuccess, view.State)
		require.Equal(t, "Bob", view.DisplayName())
		require.Equal(t, "bob@example.com", view.Registrant.Email)
	})

	t.Run("assertion without name", func(t *testing.T) {
		c, _ := newTestController(&fakeCodeService{})
		require.NoError(t, c.CompleteViaIdentityProvider(IdentityResult{Provider: "Google", Identity: &Identity{}}))
		require.Equal(t, "User", c.View().DisplayName())
	})

	t.Run("provider error", func(t *testing.T) {
		c, _ := newTestController(&fakeCodeService{})
		err := c.CompleteViaIdentityProvider(IdentityResult{Provider: "Google", Err: errors.New("popup closed")})
		var perr *IdentityProviderError
		require.ErrorAs(t, err, &perr)
		require.Equal(t, "Google", perr.Provider)
		view := c.View()
		require.Equal(t, StateDetails, view.State)
		require.Equal(t, "Google login failed. Please try again.", view.ErrorMessage)
		require.False(t, view.Loading)
	})

	t.Run("empty result", func(t *testing.T) {
		c, _ := newTestController(&fakeCodeService{})
		err := c.CompleteViaIdentityProvider(IdentityResult{Provider: "Google"})
		require.ErrorIs(t, err, ErrEmptyAssertion)
		require.Equal(t, StateDetails, c.View().State)
	})

	t.Run("not from details", func(t *testing.T) {
		c, _ := newTestController(&fakeCodeService{})
		require.NoError(t, c.SubmitDetails(context.Background(), validRegistrant))
		err := c.CompleteViaIdentityProvider(IdentityResult{Provider: "Google", Identity: &Identity{Name: "Bob"}})
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.Equal(t, StateAwaitingOTP, c.View().State)
	})
}

func TestOperationsRefusedWhileLoading(t *testing.T) {
	codes := &fakeCodeService{block: make(chan struct{})}
	c, _ := newTestController(codes)

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitDetails(context.Background(), validRegistrant)
	}()
	require.Eventually(t, func() bool {
		return c.View().Loading
	}, time.Second, 5*time.Millisecond)

	require.ErrorIs(t, c.Restart(), ErrOperationInProgress)
	require.ErrorIs(t, c.SubmitDetails(context.Background(), validRegistrant), ErrOperationInProgress)
	require.ErrorIs(t, c.CompleteViaIdentityProvider(IdentityResult{Identity: &Identity{}}), ErrOperationInProgress)
	require.Equal(t, StateDetails, c.View().State)

	close(codes.block)
	require.NoError(t, <-done)
	view := c.View()
	require.False(t, view.Loading)
	require.Equal(t, StateAwaitingOTP, view.State)
}

func TestSignupScenario(t *testing.T) {
	codes := &fakeCodeService{codes: []string{"314159"}}
	c, _ := newTestController(codes)
	ctx := context.Background()

	require.NoError(t, c.SubmitDetails(ctx, Registrant{Name: "Ann", DateOfBirth: "2000-01-01", Email: "ann@x.com"}))
	require.Equal(t, StateAwaitingOTP, c.View().State)

	require.ErrorIs(t, c.VerifyOTP(ctx, "000000"), ErrOTPMismatch)
	require.Equal(t, StateAwaitingOTP, c.View().State)
	require.Equal(t, MsgInvalidOTP, c.View().ErrorMessage)

	require.NoError(t, c.VerifyOTP(ctx, "314159"))
	require.Equal(t, StateSuccess, c.View().State)
	require.Equal(t, "Ann", c.View().DisplayName())
}
