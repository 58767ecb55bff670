package session

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultTTL is the expiry window reset on every transition.
const DefaultTTL = 10 * time.Minute

// Store persists the single per-user interaction record. Implemented over
// Postgres with a Redis read-through in internal/repo.
type Store interface {
	// SetState overwrites any prior record for the user.
	SetState(ctx context.Context, rec *Record) error
	// GetState returns (nil, nil) when no record exists. Callers must not
	// rely on the store to filter expired records; the machine does that.
	GetState(ctx context.Context, userID string) (*Record, error)
	// ClearState removes the record; clearing a missing record is a no-op.
	ClearState(ctx context.Context, userID string) error
}

// Machine drives the per-user conversation state. A later interaction simply
// supersedes an in-flight one; concurrent requests from the same user are
// not serialized here.
type Machine struct {
	store Store
	ttl   time.Duration
	clock func() time.Time
}

// MachineOption customises the machine.
type MachineOption func(*Machine)

// WithTTL overrides the expiry window.
func WithTTL(ttl time.Duration) MachineOption {
	return func(m *Machine) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source (testing).
func WithClock(clock func() time.Time) MachineOption {
	return func(m *Machine) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMachine constructs a Machine over the given store.
func NewMachine(store Store, opts ...MachineOption) (*Machine, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	m := &Machine{store: store, ttl: DefaultTTL, clock: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns the live state for a user, or nil once the record has expired,
// even before physical removal. Expired records are lazily cleared.
func (m *Machine) Get(ctx context.Context, userID string) (*Record, error) {
	rec, err := m.store.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if !rec.ExpiresAt.After(m.clock()) {
		if cerr := m.store.ClearState(ctx, userID); cerr != nil {
			logx.WithContext(ctx).Errorf("session: lazy clear user=%s err=%v", userID, cerr)
		}
		return nil, nil
	}
	return rec, nil
}

// Set overwrites the user's state unconditionally and resets the expiry
// window. The target state must be a named state but no edge check applies;
// use Transition when the current state matters.
func (m *Machine) Set(ctx context.Context, userID string, state State, payload Payload) error {
	if !state.Valid() {
		return ErrInvalidTransition{From: "", To: state}
	}
	return m.store.SetState(ctx, &Record{
		UserID:    userID,
		State:     state,
		Payload:   payload,
		ExpiresAt: m.clock().Add(m.ttl),
	})
}

// Transition moves the user from their current state to `to`, rejecting
// edges outside the transition table. A missing or expired record counts as
// Idle.
func (m *Machine) Transition(ctx context.Context, userID string, to State, payload Payload) error {
	current := StateIdle
	rec, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec != nil {
		current = rec.State
	}
	if !CanTransition(current, to) {
		return ErrInvalidTransition{From: current, To: to}
	}
	if to == StateIdle {
		return m.store.ClearState(ctx, userID)
	}
	return m.Set(ctx, userID, to, payload)
}

// Clear removes the user's state; completing, cancelling and expiring all
// funnel through here.
func (m *Machine) Clear(ctx context.Context, userID string) error {
	return m.store.ClearState(ctx, userID)
}
