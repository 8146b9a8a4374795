package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/txm-control/txm-go/pkg/controller"
	"github.com/txm-control/txm-go/pkg/log"
	"github.com/txm-control/txm-go/pkg/pv"
)

// TeardownError aggregates the failed restoration writes of a finished
// session. The body ran; the instrument may be left in a partial state.
type TeardownError struct {
	// Failed maps endpoint names to their restoration failures.
	Failed map[string]error
}

// Error implements error.
func (e *TeardownError) Error() string {
	names := e.FailedNames()
	return fmt.Sprintf("session teardown: %d steps failed: %s", len(names), strings.Join(names, ", "))
}

// FailedNames returns the failed endpoint names in sorted order.
func (e *TeardownError) FailedNames() []string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Step is one fixed write in the session's entry or teardown sequence.
type Step struct {
	// Endpoint is the PV name to write.
	Endpoint string

	// Value is the raw value to write.
	Value any
}

// Config names the endpoint subset a session protects.
type Config struct {
	// Snapshot lists the endpoints captured on entry and restored on exit.
	Snapshot []string

	// Arm lists writes applied after the snapshot, before the body runs.
	// Typically enables fast-shutter protection.
	Arm []Step

	// Teardown lists writes applied after restoration, in order. Typically
	// returns the detector to continuous mode, stops extra logging, and
	// disarms the fast shutter.
	Teardown []Step
}

// snapshotEntry preserves capture order so restoration replays it.
type snapshotEntry struct {
	name  string
	value pv.Value
}

// Session wraps scan bodies in the snapshot/restore protocol.
type Session struct {
	ctrl *controller.Controller
	cfg  Config

	mu     sync.Mutex
	active bool
}

// New creates a session bound to the given controller.
func New(ctrl *controller.Controller, cfg Config) *Session {
	return &Session{ctrl: ctrl, cfg: cfg}
}

// Run executes body inside the session protocol.
//
// Entry: every configured snapshot endpoint is read and recorded, then the
// arm writes are applied. Exit, on every path including a body panic: the
// snapshot is restored in capture order, then the teardown writes run in
// their fixed order. No teardown step is skipped because an earlier one
// failed.
//
// The body's error is never swallowed: teardown failures are reported as a
// *TeardownError joined with it. Sessions do not nest; a Run while another
// is live fails fast with controller.ErrSessionActive.
func (s *Session) Run(ctx context.Context, body func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return controller.ErrSessionActive
	}
	s.active = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	id := uuid.NewString()
	if err := s.ctrl.BeginSession(id); err != nil {
		return err
	}
	defer s.ctrl.EndSession(id)

	snapshot, err := s.capture(ctx)
	if err != nil {
		// Nothing written yet, nothing to restore.
		return fmt.Errorf("session snapshot: %w", err)
	}

	if armErr := s.apply(ctx, s.cfg.Arm, nil); armErr != nil {
		tdErr := s.teardown(ctx, id, snapshot)
		return errors.Join(fmt.Errorf("session arm: %w", armErr), tdErr)
	}

	s.emit(id, log.Event{
		Category: log.CategorySession,
		Severity: log.SeverityInfo,
		Session:  &log.SessionEvent{Action: log.SessionStarted, Snapshot: len(snapshot)},
	})

	var bodyErr error
	panicked := false
	var panicValue any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				panicValue = r
			}
		}()
		bodyErr = body(ctx)
	}()

	tdErr := s.teardown(ctx, id, snapshot)

	if panicked {
		panic(panicValue)
	}
	return errors.Join(bodyErr, tdErr)
}

// capture reads every snapshot endpoint, preserving order.
func (s *Session) capture(ctx context.Context) ([]snapshotEntry, error) {
	snapshot := make([]snapshotEntry, 0, len(s.cfg.Snapshot))
	for _, name := range s.cfg.Snapshot {
		value, err := s.ctrl.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("capture %q: %w", name, err)
		}
		snapshot = append(snapshot, snapshotEntry{name: name, value: value})
	}
	return snapshot, nil
}

// apply runs a write sequence. With failures non-nil it records failed
// writes there and continues; otherwise it stops at the first failure.
func (s *Session) apply(ctx context.Context, steps []Step, failures map[string]error) error {
	for _, st := range steps {
		if err := s.ctrl.Set(ctx, st.Endpoint, st.Value); err != nil {
			if failures == nil {
				return fmt.Errorf("write %q: %w", st.Endpoint, err)
			}
			failures[st.Endpoint] = err
		}
	}
	return nil
}

// teardown restores the snapshot and runs the fixed teardown writes.
// Every step is attempted regardless of earlier failures.
func (s *Session) teardown(ctx context.Context, id string, snapshot []snapshotEntry) error {
	failures := make(map[string]error)

	for _, entry := range snapshot {
		if err := s.ctrl.Set(ctx, entry.name, entry.value.Raw()); err != nil {
			failures[entry.name] = err
		}
	}
	s.apply(ctx, s.cfg.Teardown, failures)

	ev := log.Event{
		Category: log.CategorySession,
		Severity: log.SeverityInfo,
		Session:  &log.SessionEvent{Action: log.SessionFinished, Snapshot: len(snapshot)},
	}
	if len(failures) > 0 {
		ev.Severity = log.SeverityError
		td := &TeardownError{Failed: failures}
		ev.Session.RestoreFailed = td.FailedNames()
		s.emit(id, ev)
		return td
	}
	s.emit(id, ev)
	return nil
}

func (s *Session) emit(id string, ev log.Event) {
	ev.Timestamp = time.Now()
	ev.ControllerID = s.ctrl.ID()
	ev.SessionID = id
	s.ctrl.Logger().Log(ev)
}
