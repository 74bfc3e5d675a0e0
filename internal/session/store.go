// Package session holds authentication state: the current user, session
// token and the checking/authenticated/unauthenticated machine that gates
// protected routes.
package session

import (
	"context"
	"strings"
	"sync"

	"tailor-orders/internal/errs"
)

type State int

const (
	// StateChecking: the startup session probe has not settled yet. No
	// redirect decision may be made in this state.
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

// Decision is the outcome of a protected-route check.
type Decision int

const (
	// DecisionNone: the probe is still in flight; do not redirect.
	DecisionNone Decision = iota
	DecisionAllow
	DecisionRedirectToLogin
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	User            *User
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Store tracks the session. Loading starts true: a session probe is always
// in flight before the first consumer reads the store.
type Store struct {
	mu          sync.Mutex
	provider    Provider
	state       State
	user        *User
	loading     bool
	errMsg      string
	unsubscribe func()
}

func NewStore(provider Provider) *Store {
	return &Store{
		provider: provider,
		state:    StateChecking,
		loading:  true,
	}
}

// Start subscribes to the provider's session observer; the first
// notification settles the startup probe.
func (s *Store) Start() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	unsub := s.provider.OnSessionChange(s.onSessionChange)

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
}

func (s *Store) Stop() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *Store) onSessionChange(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.loading = false
	if u != nil {
		s.state = StateAuthenticated
	} else {
		s.state = StateUnauthenticated
	}
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.beginPending()
	user, err := s.provider.SignIn(ctx, email, password)
	return s.settleCredential(user, err)
}

func (s *Store) SignUp(ctx context.Context, email, password string) error {
	s.beginPending()
	user, err := s.provider.SignUp(ctx, email, password)
	return s.settleCredential(user, err)
}

func (s *Store) SignOut(ctx context.Context) error {
	s.beginPending()
	err := s.provider.SignOut(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = MapAuthError(err)
		return errs.Wrap(errs.KindAuth, s.errMsg, err)
	}
	s.user = nil
	s.state = StateUnauthenticated
	return nil
}

// RefreshToken fetches a fresh token for the live user and swaps the stored
// credential. Refresh failure is non-fatal: IsAuthenticated never changes
// here.
func (s *Store) RefreshToken(ctx context.Context) error {
	token, err := s.provider.Token(ctx, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		refreshed := *s.user
		refreshed.Token = token
		s.user = &refreshed
	}
	return nil
}

// Token implements the submission pipeline's token source.
func (s *Store) Token(ctx context.Context, forceRefresh bool) (string, error) {
	token, err := s.provider.Token(ctx, forceRefresh)
	if err != nil {
		return "", err
	}
	if forceRefresh {
		s.mu.Lock()
		if s.user != nil {
			refreshed := *s.user
			refreshed.Token = token
			s.user = &refreshed
		}
		s.mu.Unlock()
	}
	return token, nil
}

// Gate decides a protected-route check. While the startup probe is in
// flight it returns DecisionNone: redirecting during the probe causes
// flicker and wrongful login bounces.
func (s *Store) Gate() Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return DecisionNone
	}
	if s.state == StateAuthenticated {
		return DecisionAllow
	}
	return DecisionRedirectToLogin
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		User:            s.user,
		IsAuthenticated: s.state == StateAuthenticated,
		Loading:         s.loading,
		Error:           s.errMsg,
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) beginPending() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) settleCredential(user *User, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = MapAuthError(err)
		return errs.Wrap(errs.KindAuth, s.errMsg, err)
	}
	s.user = user
	s.state = StateAuthenticated
	return nil
}

// MapAuthError translates provider error codes into user-facing text.
// Unmapped failures fall back to the raw message; auth failures are always
// recoverable.
func MapAuthError(err error) string {
	if errs.KindOf(err) == errs.KindNetwork {
		return "Network error. Check your connection and try again."
	}
	msg := errs.MessageOf(err)
	code := strings.ToUpper(msg)
	switch {
	case strings.Contains(code, "INVALID_LOGIN_CREDENTIALS"), strings.Contains(code, "INVALID_PASSWORD"):
		return "Incorrect email or password."
	case strings.Contains(code, "EMAIL_NOT_FOUND"):
		return "No account found for this email."
	case strings.Contains(code, "INVALID_EMAIL"):
		return "The email address is not valid."
	case strings.Contains(code, "TOO_MANY_ATTEMPTS_TRY_LATER"):
		return "Too many attempts. Please try again later."
	case strings.Contains(code, "EMAIL_EXISTS"):
		return "An account with this email already exists."
	case strings.Contains(code, "WEAK_PASSWORD"):
		return "The password is too weak. Use at least 6 characters."
	default:
		return msg
	}
}
