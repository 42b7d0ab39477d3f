package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/fabguard/storefront-backend/internal/cart"
	"github.com/fabguard/storefront-backend/internal/checkout"
	"github.com/fabguard/storefront-backend/pkg/enums"
	pkgerrors "github.com/fabguard/storefront-backend/pkg/errors"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultTTL = 24 * time.Hour

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// Catalog supplies the service index and sub-items sessions need.
type Catalog interface {
	Index(ctx context.Context) (cart.Index, error)
	SubItems(ctx context.Context, svc cart.Service) ([]string, error)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Catalog   Catalog
	Submitter checkout.Submitter
	Coupons   checkout.CouponResolver
	Snapshots SnapshotStore
	Logger    *logger.Logger
}

// Options tunes session lifetime and checkout behaviour.
type Options struct {
	TTL  time.Duration
	Flow checkout.FlowOptions
}

// Session owns one visitor's cart and checkout flow.
type Session struct {
	ID   string
	Cart *cart.Store
	Flow *checkout.Flow

	mu        sync.Mutex
	index     *liveIndex
	lastSeen  time.Time
	lastSaved string
	evicted   bool
}

// liveIndex lets a long-lived cart see the catalog as of the current request.
type liveIndex struct {
	current cart.Index
}

func (l *liveIndex) Lookup(id int64) (cart.Service, bool) {
	return l.current.Lookup(id)
}

// Registry hands out sessions and serializes work on each one.
type Registry struct {
	deps Deps
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry validates dependencies.
func NewRegistry(deps Deps, opts Options) (*Registry, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if deps.Submitter == nil {
		return nil, fmt.Errorf("submitter required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupon table required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	return &Registry{
		deps:     deps,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// ValidID reports whether id is an acceptable session identifier.
func ValidID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// Do runs fn with exclusive access to the session, creating or restoring it
// as needed, and persists the resulting state.
func (r *Registry) Do(ctx context.Context, sessionID string, fn func(*Session) error) error {
	if !ValidID(sessionID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}
	ctx = r.deps.Logger.WithSessionID(ctx, sessionID)

	index, err := r.deps.Catalog.Index(ctx)
	if err != nil {
		return err
	}

	for {
		sess, created, err := r.acquire(sessionID, index)
		if err != nil {
			return err
		}
		sess.mu.Lock()
		if sess.evicted {
			// swept between lookup and lock
			sess.mu.Unlock()
			continue
		}
		err = r.run(ctx, sess, created, index, fn)
		sess.mu.Unlock()
		return err
	}
}

func (r *Registry) run(ctx context.Context, sess *Session, created bool, index cart.Index, fn func(*Session) error) error {
	sess.index.current = index
	sess.lastSeen = r.now()
	if created {
		r.restore(ctx, sess)
	}

	err := fn(sess)
	if r.untouched(sess) {
		r.forget(sess)
		return err
	}
	r.persist(ctx, sess)
	return err
}

// untouched reports whether the session holds nothing worth keeping: never
// saved, an empty cart, no open surface.
func (r *Registry) untouched(sess *Session) bool {
	return sess.lastSaved == "" &&
		sess.Cart.IsEmpty() &&
		sess.Flow.State() == enums.CheckoutStateIdle &&
		!sess.Flow.Surfaces().CartOpen
}

// forget drops the session from the registry. Callers hold sess.mu.
func (r *Registry) forget(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[sess.ID]; ok && current == sess {
		delete(r.sessions, sess.ID)
	}
	sess.evicted = true
}

func (r *Registry) acquire(sessionID string, index cart.Index) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[sessionID]; ok {
		return sess, false, nil
	}

	live := &liveIndex{current: index}
	store := cart.NewStore(live)
	flow, err := checkout.NewFlow(store, r.deps.Submitter, r.deps.Coupons, r.deps.Catalog, r.opts.Flow)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create checkout flow")
	}
	sess := &Session{ID: sessionID, Cart: store, Flow: flow, index: live, lastSeen: r.now()}
	logg := r.deps.Logger
	sizeCtx := logg.WithSessionID(context.Background(), sessionID)
	store.Subscribe(func(c cart.SizeChange) {
		logg.Debug(logg.WithFields(sizeCtx, map[string]any{"previous": c.Previous, "current": c.Current}), "sessions.cart.size_changed")
	})
	r.sessions[sessionID] = sess
	return sess, true, nil
}

func (r *Registry) restore(ctx context.Context, sess *Session) {
	logg := r.deps.Logger
	if r.deps.Snapshots == nil {
		return
	}
	snap, err := r.deps.Snapshots.Load(ctx, sess.ID)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "sessions.snapshot.load_failed")
		return
	}
	if snap == nil {
		return
	}
	lines := make([]cart.Line, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		// lines keep the service as it was when added; retired services are dropped
		if _, ok := sess.index.Lookup(line.Service.ID); ok {
			lines = append(lines, line)
		}
	}
	sess.Cart.Restore(lines)
	sess.Flow.Restore(snap.Flow)
	sess.lastSaved = fingerprint(Snapshot{Lines: sess.Cart.Lines(), Flow: sess.Flow.Snapshot()})
	logg.Info(logg.WithField(ctx, "lines", len(lines)), "sessions.snapshot.restored")
}

func (r *Registry) persist(ctx context.Context, sess *Session) {
	if r.deps.Snapshots == nil {
		return
	}
	logg := r.deps.Logger

	if sess.Flow.State() == enums.CheckoutStateCompleted && sess.Cart.IsEmpty() {
		if sess.lastSaved == "" {
			return
		}
		if err := r.deps.Snapshots.Delete(ctx, sess.ID); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "sessions.snapshot.delete_failed")
			return
		}
		sess.lastSaved = ""
		return
	}

	snap := Snapshot{Lines: sess.Cart.Lines(), Flow: sess.Flow.Snapshot()}
	key := fingerprint(snap)
	if key == sess.lastSaved {
		return
	}
	snap.UpdatedAt = r.now().UTC()
	if err := r.deps.Snapshots.Save(ctx, sess.ID, snap, r.opts.TTL); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "sessions.snapshot.save_failed")
		return
	}
	sess.lastSaved = key
}

func fingerprint(snap Snapshot) string {
	buf, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	return string(buf)
}

// Sweep evicts sessions idle for longer than the TTL, saving a final snapshot
// for each. Save failures are combined into the returned error.
func (r *Registry) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.opts.TTL)

	r.mu.Lock()
	var idle []*Session
	for id, sess := range r.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			sess.evicted = true
			delete(r.sessions, id)
			idle = append(idle, sess)
		}
		sess.mu.Unlock()
	}
	r.mu.Unlock()

	var errs error
	if r.deps.Snapshots != nil {
		for _, sess := range idle {
			if sess.Flow.State() == enums.CheckoutStateCompleted && sess.Cart.IsEmpty() {
				continue
			}
			snap := Snapshot{Lines: sess.Cart.Lines(), Flow: sess.Flow.Snapshot(), UpdatedAt: r.now().UTC()}
			if err := r.deps.Snapshots.Save(ctx, sess.ID, snap, r.opts.TTL); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
			}
		}
	}
	return len(idle), errs
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logg := r.deps.Logger
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := r.Sweep(ctx)
			if err != nil {
				logg.Error(ctx, "sessions.sweep.failed", err)
			}
			if evicted > 0 {
				logg.Info(logg.WithField(ctx, "evicted", evicted), "sessions.sweep.completed")
			}
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
