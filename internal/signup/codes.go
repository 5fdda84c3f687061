package signup

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// CodeService issues and checks verification codes. Both calls may take a
// while; the controller keeps its loading flag raised while they run.
type CodeService interface {
	Generate(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, expected string, entered string) (bool, error)
}

// CodeNotifier delivers a freshly generated code to the registrant.
type CodeNotifier interface {
	NotifyCode(ctx context.Context, email string, code string) error
}

// SimulatedCodeService generates codes locally after an artificial network
// delay and hands them to a notifier instead of a real transport.
type SimulatedCodeService struct {
	latency  time.Duration
	notifier CodeNotifier
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *SimulatedCodeService) Generate(ctx context.Context, email string) (string, error) {
	if err := sleepContext(ctx, s.latency); err != nil {
		return "", err
	}
	code, err := generateOTP()
	if err != nil {
		return "", err
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyCode(ctx, email, code); err != nil {
			return "", err
		}
	}
	return code, nil
}

func (s *SimulatedCodeService) Verify(ctx context.Context, expected string, entered string) (bool, error) {
	if err := sleepContext(ctx, s.latency); err != nil {
		return false, err
	}
	return expected != "" && expected == entered, nil
}

func NewSimulatedCodeService(latency time.Duration, notifier CodeNotifier) *SimulatedCodeService {
	return &SimulatedCodeService{
		latency:  latency,
		notifier: notifier,
	}
}
