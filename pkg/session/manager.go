package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/devicelab-dev/aviary-e2e/pkg/appium"
	"github.com/devicelab-dev/aviary-e2e/pkg/config"
	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/logger"
)

// Retry defaults. Session creation is the flakiest call in the whole run
// (simulator boot, WebDriverAgent build), so it gets a few spaced attempts
// where everything else gets none.
const (
	DefaultRetryInterval = 2 * time.Second
	DefaultMaxRetries    = 3
)

// Manager acquires and releases sessions against one Appium server.
type Manager struct {
	cfg *config.Config

	// Overridable for tests.
	RetryInterval time.Duration
	MaxRetries    uint64
}

// NewManager returns a Manager for the given configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:           cfg,
		RetryInterval: DefaultRetryInterval,
		MaxRetries:    DefaultMaxRetries,
	}
}

// Acquire opens a new session, launching the app under test (or resuming
// it, per the noReset capability). Transient server-side failures are
// retried on a constant interval; capability rejections are not. Any
// failure after retries surfaces as a session_start error.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	if err := m.cfg.Validate(); err != nil {
		return nil, core.ErrSessionStart.WithMessage("configuration rejected").WithCause(err)
	}

	caps := m.cfg.ToW3C()
	var client *appium.Client

	attempt := 0
	op := func() error {
		attempt++
		client = appium.NewClient(m.cfg.Server)
		_, err := client.CreateSession(caps)
		if err == nil {
			return nil
		}
		logger.Warn("session attempt %d failed: %v", attempt, err)

		var wireErr *appium.Error
		if errors.As(err, &wireErr) {
			switch wireErr.Code {
			case appium.CodeSessionNotCreated, appium.CodeUnknownError:
				// Device busy or backend still warming up
				return err
			}
			// Rejected capabilities will not get better by waiting
			return backoff.Permanent(err)
		}
		// Transport errors: the server may still be coming up
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.retryInterval()), m.maxRetries()),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, core.ErrSessionStart.
			WithMessage(fmt.Sprintf("could not start session on %s after %d attempt(s)", m.cfg.Server, attempt)).
			WithCause(err)
	}

	logger.Info("session %s started (device %q)", client.SessionID(), m.cfg.Caps.DeviceName)
	return &Session{
		id:     client.SessionID(),
		caps:   m.cfg.Caps,
		client: client,
		state:  stateActive,
	}, nil
}

// Release closes the session. Idempotent: releasing nil or an already
// closed session is a no-op. A wire failure is reported but the session is
// still marked closed, so it is never double-released.
func (m *Manager) Release(s *Session) error {
	if s == nil || s.state != stateActive {
		return nil
	}
	s.state = stateClosed

	if err := s.client.DeleteSession(); err != nil {
		logger.Warn("session %s release failed: %v", s.id, err)
		return err
	}
	logger.Info("session %s released", s.id)
	return nil
}

func (m *Manager) retryInterval() time.Duration {
	if m.RetryInterval > 0 {
		return m.RetryInterval
	}
	return DefaultRetryInterval
}

func (m *Manager) maxRetries() uint64 {
	if m.MaxRetries > 0 {
		return m.MaxRetries
	}
	return DefaultMaxRetries
}
