package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/aurisvision/monad-trading-bot-sub003/internal/cache"
	"github.com/aurisvision/monad-trading-bot-sub003/internal/model"
	"github.com/aurisvision/monad-trading-bot-sub003/pkg/session"
)

var _ session.Store = (*SessionRepo)(nil)

// sessionEnvelope is the Redis representation of a session row. Postgres is
// the source of truth; the cache entry only saves the round trip.
type sessionEnvelope struct {
	State     string    `json:"state"`
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRepo persists conversation records in Postgres with a Redis
// read-through. Cache failures fall back to the database silently.
type SessionRepo struct {
	sessions model.SessionsModel
	backend  cache.Backend
	clock    func() time.Time
}

// NewSessionRepo wires the repo. backend may be nil, which disables the
// read-through.
func NewSessionRepo(sessions model.SessionsModel, backend cache.Backend) *SessionRepo {
	return &SessionRepo{sessions: sessions, backend: backend, clock: time.Now}
}

// SetState implements session.Store by overwriting the user's single row.
func (r *SessionRepo) SetState(ctx context.Context, rec *session.Record) error {
	payload, err := msgpack.Marshal(&rec.Payload)
	if err != nil {
		return fmt.Errorf("repo: encode session payload: %w", err)
	}
	row := &model.Sessions{
		UserId:    rec.UserID,
		State:     string(rec.State),
		Payload:   payload,
		ExpiresAt: rec.ExpiresAt,
		UpdatedAt: r.clock(),
	}
	if err := r.sessions.Upsert(ctx, row); err != nil {
		return err
	}
	r.cacheSet(ctx, rec.UserID, &sessionEnvelope{
		State:     row.State,
		Payload:   payload,
		ExpiresAt: rec.ExpiresAt,
	})
	return nil
}

// GetState implements session.Store. Expiry filtering stays with the session
// machine; this only reports what is stored.
func (r *SessionRepo) GetState(ctx context.Context, userID string) (*session.Record, error) {
	if env := r.cacheGet(ctx, userID); env != nil {
		return decodeRecord(userID, env.State, env.Payload, env.ExpiresAt)
	}

	row, err := r.sessions.FindOneByUserId(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: session %s: %w", userID, err)
	}
	r.cacheSet(ctx, userID, &sessionEnvelope{
		State:     row.State,
		Payload:   row.Payload,
		ExpiresAt: row.ExpiresAt,
	})
	return decodeRecord(userID, row.State, row.Payload, row.ExpiresAt)
}

// ClearState implements session.Store; clearing a missing record is a no-op.
func (r *SessionRepo) ClearState(ctx context.Context, userID string) error {
	if err := r.sessions.DeleteByUserId(ctx, userID); err != nil {
		return err
	}
	if r.backend != nil {
		if err := r.backend.DelCtx(ctx, cache.SessionKey(userID)); err != nil {
			logx.WithContext(ctx).Errorf("repo: session cache del user=%s: %v", userID, err)
		}
	}
	return nil
}

func decodeRecord(userID, state string, payload []byte, expiresAt time.Time) (*session.Record, error) {
	rec := &session.Record{
		UserID:    userID,
		State:     session.State(state),
		ExpiresAt: expiresAt,
	}
	if len(payload) > 0 {
		if err := msgpack.Unmarshal(payload, &rec.Payload); err != nil {
			return nil, fmt.Errorf("repo: decode session payload: %w", err)
		}
	}
	return rec, nil
}

func (r *SessionRepo) cacheGet(ctx context.Context, userID string) *sessionEnvelope {
	if r.backend == nil {
		return nil
	}
	var env sessionEnvelope
	if err := r.backend.GetCtx(ctx, cache.SessionKey(userID), &env); err != nil {
		if !r.backend.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("repo: session cache get user=%s: %v", userID, err)
		}
		return nil
	}
	return &env
}

func (r *SessionRepo) cacheSet(ctx context.Context, userID string, env *sessionEnvelope) {
	if r.backend == nil {
		return
	}
	ttl := time.Until(env.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := r.backend.SetWithExpireCtx(ctx, cache.SessionKey(userID), env, ttl); err != nil {
		logx.WithContext(ctx).Errorf("repo: session cache set user=%s: %v", userID, err)
	}
}
