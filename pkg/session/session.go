// Package session owns the WebDriver session lifecycle: acquire with
// bounded retry, idempotent release. Exactly one session is in play at a
// time; everything above holds a non-owning reference.
package session

import (
	"github.com/devicelab-dev/aviary-e2e/pkg/appium"
	"github.com/devicelab-dev/aviary-e2e/pkg/config"
)

type state int

const (
	stateUnopened state = iota
	stateActive
	stateClosed
)

// Session is a live automation connection to the app under test.
type Session struct {
	id     string
	caps   config.Capabilities
	client *appium.Client
	state  state
}

// ID returns the backend session ID.
func (s *Session) ID() string { return s.id }

// Client returns the wire client bound to this session.
func (s *Session) Client() *appium.Client { return s.client }

// Caps returns the capabilities the session was opened with.
func (s *Session) Caps() config.Capabilities { return s.caps }

// Active reports whether the session is open and usable.
func (s *Session) Active() bool { return s != nil && s.state == stateActive }
