package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/cartsync"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errs.New("session not found")
	ErrSessionMismatch = errs.New("session belongs to another user")
)

// Registry owns every live session. Sessions are created explicitly on
// login, or lazily on the first authenticated request after a restart,
// and are torn down on logout or after sitting idle.
type Registry struct {
	store cartsync.Store
	clock clock.Clock
	cfg   config.SessionConfig

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry(store cartsync.Store, clk clock.Clock, cfg config.SessionConfig) *Registry {
	return &Registry{
		store:    store,
		clock:    clk,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open starts a session and loads its cart. A session is returned even when
// the initial load fails; the cart is then empty and the error says why.
// ctx must carry the store credential.
func (r *Registry) Open(ctx context.Context, id uuid.UUID, userID string) (*Session, error) {
	sess := newSession(id, userID, r.newReconciler(), r.clock.Now())

	r.mu.Lock()
	if prev, ok := r.sessions[id]; ok {
		prev.end()
	}
	r.sessions[id] = sess
	r.mu.Unlock()

	return sess, r.load(ctx, sess)
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(r.clock.Now())
	return sess, nil
}

// Ensure returns the live session for id, opening it when it is missing.
// Concurrent callers for a missing session share the one that is opened.
func (r *Registry) Ensure(ctx context.Context, id uuid.UUID, userID string) (*Session, error) {
	now := r.clock.Now()

	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		sess = newSession(id, userID, r.newReconciler(), now)
		r.sessions[id] = sess
	}
	r.mu.Unlock()

	if ok {
		if sess.UserID != userID {
			return nil, errs.AuthRequired(ErrSessionMismatch)
		}
		sess.touch(now)
		return sess, nil
	}

	err := r.load(ctx, sess)
	if err != nil && errs.KindOf(err) == errs.KindAuthRequired {
		r.closeSession(id, sess)
		return nil, err
	}
	// other load failures heal on the next refresh
	return sess, nil
}

func (r *Registry) load(ctx context.Context, sess *Session) error {
	if _, err := sess.Cart.Init(ctx); err != nil {
		slog.Warn("cart init failed", "session_id", sess.ID, "user_id", sess.UserID, "error", err.Error())
		return err
	}
	return nil
}

// closeSession ends sess unless id has since been given to another session.
func (r *Registry) closeSession(id uuid.UUID, sess *Session) {
	r.mu.Lock()
	if r.sessions[id] == sess {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	sess.end()
}

// Close tears the session down. Closing an unknown session is a no-op.
func (r *Registry) Close(id uuid.UUID) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		sess.end()
	}
}

// Sweep closes sessions idle for longer than the configured timeout and
// returns how many were closed.
func (r *Registry) Sweep(now time.Time) int {
	var idle []*Session
	r.mu.Lock()
	for id, sess := range r.sessions {
		if sess.idleSince(now) > r.cfg.IdleTimeout {
			idle = append(idle, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		sess.end()
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.clock.Now()); n > 0 {
				slog.Info("closed idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}

// CloseAll ends every session, used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()
	for _, sess := range all {
		sess.end()
	}
}

func (r *Registry) newReconciler() *cartsync.Reconciler {
	var opts []cartsync.Option
	if r.cfg.ResyncTimeout > 0 {
		opts = append(opts, cartsync.WithResyncTimeout(r.cfg.ResyncTimeout))
	}
	return cartsync.NewReconciler(r.store, opts...)
}
