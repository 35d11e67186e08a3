// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/pollpocket/authapi"
	"github.com/danielhkuo/pollpocket/models"
)

// ErrNotAnonymous is returned by UpgradeAnonymous when the current identity
// already has credentials.
var ErrNotAnonymous = errors.New("not an anonymous account")

// expirySkew is how early an access token is treated as expired, so a token
// that dies mid-request gets refreshed up front.
const expirySkew = 30 * time.Second

// Manager owns the one current session for the process and notifies
// subscribers whenever it changes. Construct it once at startup and pass it
// to whatever needs identity; there is no package-level instance.
type Manager struct {
	auth  *authapi.Client
	store *FileStore

	mu      sync.Mutex
	session *models.Session
	loading bool
	subs    map[int]chan *models.Session
	nextSub int
}

// NewManager returns a Manager with no identity yet; call Initialize before
// reading identity state. store may be nil to disable persistence.
func NewManager(auth *authapi.Client, store *FileStore) *Manager {
	return &Manager{
		auth:    auth,
		store:   store,
		loading: true,
		subs:    make(map[int]chan *models.Session),
	}
}

// Initialize establishes an identity: the persisted session when still
// usable, a refreshed one when only the access token lapsed, or a brand-new
// anonymous session. Loading settles (successfully or not) before it
// returns, so dependents can gate on Loading() == false.
func (m *Manager) Initialize(ctx context.Context) error {
	defer m.settle()

	var persisted *models.Session
	if m.store != nil {
		persisted = m.store.Load()
	}

	if persisted != nil {
		if !expired(persisted) {
			slog.Info("restored persisted session", "user_id", persisted.User.ID,
				"anonymous", persisted.User.IsAnonymous)
			m.setSession(persisted)
			return nil
		}

		refreshed, err := m.auth.RefreshSession(ctx, persisted.RefreshToken)
		if err == nil {
			slog.Info("refreshed persisted session", "user_id", refreshed.User.ID)
			m.setSession(refreshed)
			return nil
		}
		slog.Warn("failed to refresh persisted session, falling back to anonymous", "error", err)
	}

	return m.signInAnonymously(ctx)
}

func (m *Manager) signInAnonymously(ctx context.Context) error {
	session, err := m.auth.SignInAnonymously(ctx)
	if err != nil {
		slog.Error("anonymous sign-in failed", "error", err)
		return err
	}
	slog.Info("signed in anonymously", "user_id", session.User.ID)
	m.setSession(session)
	return nil
}

// SignIn exchanges credentials for a session. On failure the current
// identity is left untouched and the error carries its classification.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	session, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	m.setSession(session)
	return nil
}

// SignUp requests account creation. pending is true when the account was
// created but needs email verification before it is usable; the current
// (anonymous) identity stays in place in that case.
func (m *Manager) SignUp(ctx context.Context, email, password string) (pending bool, err error) {
	resp, err := m.auth.SignUp(ctx, email, password)
	if err != nil {
		return false, err
	}
	if resp.Session == nil {
		return true, nil
	}
	m.setSession(resp.Session)
	return false, nil
}

// SignOut invalidates the current session and immediately signs in
// anonymously again, so consumers never observe a missing identity.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	current := m.session
	m.mu.Unlock()

	if current != nil {
		if err := m.auth.SignOut(ctx, current.AccessToken); err != nil {
			return err
		}
	}

	m.setSession(nil)
	return m.signInAnonymously(ctx)
}

// UpgradeAnonymous attaches credentials to the current anonymous account in
// place: the user ID is preserved, so data created before the upgrade stays
// attached to the identity.
func (m *Manager) UpgradeAnonymous(ctx context.Context, email, password string) error {
	m.mu.Lock()
	current := m.session
	m.mu.Unlock()

	if current == nil || !current.User.IsAnonymous {
		return ErrNotAnonymous
	}

	session, err := m.auth.UpdateUser(ctx, current.AccessToken, email, password)
	if err != nil {
		return err
	}
	slog.Info("anonymous account upgraded", "user_id", session.User.ID)
	m.setSession(session)
	return nil
}

// Subscribe returns a channel that yields the session after every change
// (nil when it was cleared), plus an unsubscribe func the consumer must call
// on teardown. A slow consumer only ever misses intermediate values; the
// latest session is always delivered. Updates from this channel, not the
// return values of the mutating calls, are the source of truth.
func (m *Manager) Subscribe() (<-chan *models.Session, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan *models.Session, 1)
	m.subs[id] = ch

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Current returns a copy of the current session, or nil before Initialize
// completes or after a failed initialization.
func (m *Manager) Current() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	cp := *m.session
	return &cp
}

// User returns the current identity, or nil when there is none.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	cp := m.session.User
	return &cp
}

// IsAuthenticated reports whether the identity is present and not anonymous.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && !m.session.User.IsAnonymous
}

// IsAnonymous reports whether the current identity is anonymous.
func (m *Manager) IsAnonymous() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil && m.session.User.IsAnonymous
}

// Loading reports whether Initialize has not yet settled.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// AccessToken implements dataapi.TokenSource.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessToken
}

func (m *Manager) setSession(session *models.Session) {
	if m.store != nil {
		var err error
		if session != nil {
			err = m.store.Save(session)
		} else {
			err = m.store.Clear()
		}
		if err != nil {
			// Persistence is best effort; the in-memory session still rules.
			slog.Warn("failed to persist session", "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	for _, ch := range m.subs {
		// Latest-wins delivery: replace a pending value instead of blocking.
		select {
		case ch <- session:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- session
		}
	}
}

func (m *Manager) settle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
}

func expired(s *models.Session) bool {
	return time.Now().After(time.Unix(s.ExpiresAt, 0).Add(-expirySkew))
}
