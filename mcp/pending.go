package mcp

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingAuth is one in-flight interactive sign-in; AuthURL carries the
// authorization URL the user has to open.
type PendingAuth struct {
	UUID    string
	AuthURL string
	Started time.Time
	done    chan struct{}
}

// Done is closed once the sign-in completes or is cleared.
func (p *PendingAuth) Done() <-chan struct{} { return p.done }

// PendingAuths tracks interactive sign-ins between the prompt callback and the
// completion notification so the HTTP pages can render their progress.
type PendingAuths struct {
	mu   sync.RWMutex
	byID map[string]*PendingAuth
}

func NewPendingAuths() *PendingAuths {
	return &PendingAuths{byID: make(map[string]*PendingAuth)}
}

// Announce registers a new pending sign-in and returns its id.
func (p *PendingAuths) Announce(authURL string) *PendingAuth {
	pend := &PendingAuth{
		UUID:    uuid.New().String(),
		AuthURL: authURL,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	p.mu.Lock()
	p.byID[pend.UUID] = pend
	p.mu.Unlock()
	return pend
}

func (p *PendingAuths) Get(id string) (*PendingAuth, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	x, ok := p.byID[id]
	return x, ok
}

// List returns a snapshot of pending sign-ins.
func (p *PendingAuths) List() []*PendingAuth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*PendingAuth, 0, len(p.byID))
	for _, v := range p.byID {
		out = append(out, v)
	}
	return out
}

// CompleteAll removes every pending sign-in and signals their watchers; called
// when the token manager reports an authentication outcome.
func (p *PendingAuths) CompleteAll() []string {
	p.mu.Lock()
	ids := make([]string, 0, len(p.byID))
	for id, x := range p.byID {
		ids = append(ids, id)
		close(x.done)
		delete(p.byID, id)
	}
	p.mu.Unlock()
	return ids
}
