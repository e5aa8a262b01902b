// Package authsession tracks who is logged in for one running app.
//
// A Session starts Initializing, resolves the stored session through its
// Provider, and afterwards changes state only through SignIn, SignUp, SignOut
// and Expire. Those writers are serialized; readers take a Snapshot or
// Subscribe to transitions.
package authsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

// State of the session.
type State int

const (
	Initializing State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State State
	User  *models.User
}

// IsLoading is true until the stored session has been resolved.
func (s Snapshot) IsLoading() bool { return s.State == Initializing }

// SignUpRequest carries the sign-up form.
type SignUpRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// SignUpResult reports whether the new account is already signed in.
type SignUpResult struct {
	User              *models.User
	NeedsConfirmation bool
}

// Provider is the auth half of the remote store.
type Provider interface {
	// CurrentSession returns nil, nil when no session is stored.
	CurrentSession(ctx context.Context) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	// SignUp returns a nil user in the result when confirmation is pending.
	SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error)
	SignOut(ctx context.Context) error
}

// ExpiryNotifier is implemented by providers that detect remote session
// expiry on their own. The provider reads epoch when it issues a request and
// passes that value to expire if the request is rejected.
type ExpiryNotifier interface {
	OnExpired(epoch func() uint64, expire func(epoch uint64))
}

const DefaultTimeout = 15 * time.Second

// Session is the process-wide auth handle. Pass it explicitly to the
// components that need it.
type Session struct {
	provider Provider
	log      *zap.Logger
	timeout  time.Duration

	opMu sync.Mutex // serializes writers

	mu    sync.RWMutex
	snap  Snapshot
	epoch uint64 // bumped on every transition
	subs  []subscriber
	subID int
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

func WithTimeout(d time.Duration) Option { return func(s *Session) { s.timeout = d } }

func New(p Provider, opts ...Option) *Session {
	s := &Session{
		provider: p,
		log:      zap.NewNop(),
		timeout:  DefaultTimeout,
		snap:     Snapshot{State: Initializing},
	}
	for _, o := range opts {
		o(s)
	}
	if n, ok := p.(ExpiryNotifier); ok {
		n.OnExpired(s.Epoch, s.Expire)
	}
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Epoch identifies the current state. It changes on every transition.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// CurrentUser implements listing.Identity.
func (s *Session) CurrentUser() (*models.User, bool) {
	snap := s.Snapshot()
	return snap.User, snap.State == Authenticated && snap.User != nil
}

// Subscribe registers fn for every later transition. The returned func
// removes it. fn must not call the Session writers.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subID++
	id := s.subID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Init resolves the stored session. On a remote failure the session stays
// Initializing so guards keep showing the loading state; Init can be retried.
func (s *Session) Init(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.provider.CurrentSession(ctx)
	if err != nil {
		s.log.Warn("session resolve failed", zap.Error(err))
		return wrapRemote("authsession.Init", err)
	}
	if user == nil {
		s.transition(Snapshot{State: Anonymous})
		return nil
	}
	s.transition(Snapshot{State: Authenticated, User: user})
	return nil
}

// SignIn authenticates. On failure the prior state is kept and the reason is
// returned.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.log.Info("sign-in failed", zap.String("email", email), zap.Error(err))
		return wrapRemote("authsession.SignIn", err)
	}
	s.transition(Snapshot{State: Authenticated, User: user})
	return nil
}

// SignUp creates an account. The session only becomes Authenticated when the
// provider returns a signed-in user.
func (s *Session) SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.provider.SignUp(ctx, req)
	if err != nil {
		return SignUpResult{}, wrapRemote("authsession.SignUp", err)
	}
	if !res.NeedsConfirmation && res.User != nil {
		s.transition(Snapshot{State: Authenticated, User: res.User})
	}
	return res, nil
}

// SignOut invalidates the remote session and becomes Anonymous. The local
// state is cleared even when the remote call fails, so a dead session never
// lingers; the remote error is still returned.
func (s *Session) SignOut(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.provider.SignOut(ctx)
	s.transition(Snapshot{State: Anonymous})
	if err != nil {
		s.log.Warn("remote sign-out failed", zap.Error(err))
		return wrapRemote("authsession.SignOut", err)
	}
	return nil
}

// Expire handles a remote session-expiry event observed under epoch. It is
// ignored once the session has moved on, so a rejection of a request sent
// with old credentials never signs out a newer session.
func (s *Session) Expire(epoch uint64) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.Snapshot().State != Authenticated {
		return
	}
	if current := s.Epoch(); epoch != current {
		s.log.Debug("stale expiry ignored", zap.Uint64("epoch", epoch), zap.Uint64("current", current))
		return
	}
	s.log.Info("session expired")
	s.transition(Snapshot{State: Anonymous})
}

// transition must be called with opMu held. Subscribers run after the state
// lock is released, in registration order.
func (s *Session) transition(next Snapshot) {
	s.mu.Lock()
	s.snap = next
	s.epoch++
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
}

func wrapRemote(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &apperr.Error{Kind: apperr.Network, Op: op, Message: "auth service did not respond", Err: err}
	}
	return apperr.Wrap(apperr.Network, op, err)
}
