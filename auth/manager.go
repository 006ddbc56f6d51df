package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// State is the acquisition state of the Manager. It is owned exclusively by the
// Manager; no other component mutates it.
type State int

const (
	StateUnauthenticated State = iota
	StateAcquiring
	StateAuthenticated
	StateInteractionRequired
)

func (s State) String() string {
	switch s {
	case StateAcquiring:
		return "acquiring"
	case StateAuthenticated:
		return "authenticated"
	case StateInteractionRequired:
		return "interactionRequired"
	default:
		return "unauthenticated"
	}
}

// Store is the persistence contract the Manager needs from a token cache.
// *Cache implements it.
type Store interface {
	Load(ctx context.Context, account string) (*Record, error)
	Store(ctx context.Context, account string, rec *Record) error
	Clear(ctx context.Context, account string) error
}

// acquisition is one in-flight token acquisition, shared by every caller that
// arrives while it runs. All of them observe the same token or the same error.
type acquisition struct {
	done  chan struct{}
	token string
	err   error
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Identity Identity
	Cache    Store
	// Account is the identifier used as cache key until a signed-in account is
	// known; defaults to "default".
	Account string
	// Skew is the early-refresh margin; defaults to DefaultSkew.
	Skew time.Duration
	// Prompt receives the authorization URL when an interactive sign-in starts.
	Prompt func(authURL string)
	// Notify observes state transitions (e.g. to complete pending sign-in UI).
	Notify func(State)
}

// Manager owns the token lifecycle: cache hit, silent refresh, interactive
// acquisition, in that order, with concurrent demand serialized so at most one
// acquisition flow runs at a time.
type Manager struct {
	identity Identity
	cache    Store
	skew     time.Duration
	prompt   func(string)
	notify   func(State)

	mu       sync.Mutex
	state    State
	record   *Record
	account  string
	inflight *acquisition
	// rejected is an access token the remote API refused; it is never handed
	// out again even if the cache still holds it.
	rejected string
}

func NewManager(opts *ManagerOptions) *Manager {
	if opts == nil {
		opts = &ManagerOptions{}
	}
	account := opts.Account
	if account == "" {
		account = "default"
	}
	skew := opts.Skew
	if skew <= 0 {
		skew = DefaultSkew
	}
	return &Manager{
		identity: opts.Identity,
		cache:    opts.Cache,
		skew:     skew,
		prompt:   opts.Prompt,
		notify:   opts.Notify,
		account:  account,
	}
}

// Token returns a currently valid access token, doing the minimum work needed:
// in-memory hit, cached record, silent refresh, then interactive sign-in.
// Concurrent callers share a single acquisition and observe the same outcome.
// A caller whose context ends only abandons its wait; the acquisition itself
// runs to completion so its result benefits the other waiters and the cache.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.state == StateAuthenticated && m.record.Usable(time.Now(), m.skew) {
		token := m.record.AccessToken
		m.mu.Unlock()
		return token, nil
	}
	if inflight := m.inflight; inflight != nil {
		m.mu.Unlock()
		return waitAcquisition(ctx, inflight)
	}
	flight := &acquisition{done: make(chan struct{})}
	m.inflight = flight
	m.setStateLocked(StateAcquiring)
	m.mu.Unlock()

	go m.acquire(context.WithoutCancel(ctx), flight)
	return waitAcquisition(ctx, flight)
}

func waitAcquisition(ctx context.Context, flight *acquisition) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-flight.done:
		return flight.token, flight.err
	}
}

func (m *Manager) acquire(ctx context.Context, flight *acquisition) {
	rec, err := m.attempt(ctx)

	m.mu.Lock()
	if err != nil {
		m.setStateLocked(StateUnauthenticated)
		m.record = nil
		if !errors.Is(err, ErrAuthenticationFailed) {
			err = fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
		}
		flight.err = err
	} else {
		m.setStateLocked(StateAuthenticated)
		m.record = rec
		if rec.Account != "" {
			m.account = rec.Account
		}
		flight.token = rec.AccessToken
	}
	account := m.account
	m.inflight = nil
	m.mu.Unlock()

	if err == nil && m.cache != nil {
		if cerr := m.cache.Store(ctx, account, rec); cerr != nil {
			debugf("token cache store: %v", cerr)
		}
	}
	close(flight.done)
}

// attempt runs one acquisition: cached record, then silent refresh, then
// interactive sign-in. Cache trouble is absorbed and treated as a miss.
func (m *Manager) attempt(ctx context.Context) (*Record, error) {
	var cached *Record
	if m.cache != nil {
		rec, err := m.cache.Load(ctx, m.currentAccount())
		if err != nil {
			debugf("token cache load: %v", err)
		} else {
			cached = rec
		}
	}
	if cached.Usable(time.Now(), m.skew) && !m.isRejected(cached.AccessToken) {
		return cached, nil
	}
	if cached != nil && cached.RefreshToken != "" {
		rec, err := m.identity.Refresh(ctx, cached.RefreshToken)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrInteractionRequired) {
			return nil, err
		}
		debugf("silent refresh declined: %v", err)
	}
	m.setState(StateInteractionRequired)
	return m.identity.Interactive(ctx, m.prompt)
}

// SignOut resets the acquisition state and clears the cached record. In-flight
// acquisitions are left to complete; the next Token call starts fresh.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.setStateLocked(StateUnauthenticated)
	m.record = nil
	m.rejected = ""
	account := m.account
	m.mu.Unlock()
	if m.cache == nil {
		return nil
	}
	return m.cache.Clear(ctx, account)
}

// Invalidate is the gateway hook for a remote auth rejection: the refused token
// is poisoned so re-acquisition will not trust an identical cached record, and
// the state is forced back to unauthenticated.
func (m *Manager) Invalidate(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != "" {
		m.rejected = token
	}
	if m.record != nil && (token == "" || m.record.AccessToken == token) {
		m.record = nil
		m.setStateLocked(StateUnauthenticated)
	}
}

// State returns the current acquisition state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Account returns the identifier of the signed-in account, or the configured
// default before any sign-in completed.
func (m *Manager) Account() string {
	return m.currentAccount()
}

func (m *Manager) currentAccount() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

func (m *Manager) isRejected(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return token != "" && token == m.rejected
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.setStateLocked(s)
	m.mu.Unlock()
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.notify != nil {
		go m.notify(s)
	}
}

func debugEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OUTLOOK_MCP_DEBUG")))
	return v != "" && v != "0" && v != "false"
}

func debugf(format string, args ...any) {
	if debugEnabled() {
		log.Printf("[outlook] "+format, args...)
	}
}
