package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"

	"github.com/kacase/mcp-outlook/auth"
	"github.com/kacase/mcp-outlook/graph"
)

// Service wires the token manager, the Graph gateway and the sign-in UI
// helpers together for tool registration.
type Service struct {
	manager  *auth.Manager
	calendar *graph.CalendarService
	mail     *graph.MailService
	people   *graph.PeopleService
	schedule *graph.ScheduleService
	pending  *PendingAuths
	baseURL  string
	useText  bool
	tenantID string
	clientID string

	notifyMu  sync.RWMutex
	onPending func(*PendingAuth)
}

func NewService(cfg *Config) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.applyDefaults()

	// Optionally resolve the Azure OAuth2 client from a scy EncodedResource.
	var az *cred.Azure
	if cfg.AzureRef != "" {
		res := cfg.AzureRef.Decode(context.Background(), cred.Azure{})
		if sec, err := scy.New().Load(context.Background(), res); err == nil {
			if v, ok := sec.Target.(*cred.Azure); ok {
				az = v
			}
		}
	}
	clientID := cfg.ClientID
	tenantID := cfg.TenantID
	if az != nil {
		if az.ClientID != "" {
			clientID = az.ClientID
		}
		if az.TenantID != "" && (tenantID == "" || tenantID == "organizations") {
			tenantID = az.TenantID
		}
	}

	svc := &Service{
		pending:  NewPendingAuths(),
		baseURL:  cfg.CallbackBaseURL,
		useText:  !cfg.UseData,
		tenantID: tenantID,
		clientID: clientID,
	}
	identity := auth.NewAzureIdentity(&auth.AzureOptions{
		ClientID:     clientID,
		TenantID:     tenantID,
		Scopes:       cfg.Scopes,
		CallbackAddr: cfg.CallbackAddr,
		OpenBrowser:  cfg.OpenBrowser,
	})
	svc.manager = auth.NewManager(&auth.ManagerOptions{
		Identity: identity,
		Cache:    auth.NewCache(cfg.CacheURL),
		Prompt: func(authURL string) {
			svc.firePending(svc.pending.Announce(authURL))
		},
		Notify: func(s auth.State) {
			if s == auth.StateAuthenticated || s == auth.StateUnauthenticated {
				svc.pending.CompleteAll()
			}
		},
	})
	client := graph.NewClient(svc.manager)
	svc.calendar = graph.NewCalendarService(client)
	svc.mail = graph.NewMailService(client)
	svc.people = graph.NewPeopleService(client)
	svc.schedule = graph.NewScheduleService(client)
	return svc
}

func (s *Service) Manager() *auth.Manager { return s.manager }
func (s *Service) Pending() *PendingAuths { return s.pending }
func (s *Service) UseTextField() bool     { return s.useText }
func (s *Service) BaseURL() string        { return s.baseURL }
func (s *Service) TenantID() string       { return s.tenantID }
func (s *Service) ClientID() string       { return s.clientID }

// SetPendingNotifier registers a callback invoked when an interactive sign-in
// starts; the tool layer uses it to surface the sign-in page to the client.
func (s *Service) SetPendingNotifier(f func(*PendingAuth)) {
	s.notifyMu.Lock()
	s.onPending = f
	s.notifyMu.Unlock()
}

func (s *Service) firePending(p *PendingAuth) {
	s.notifyMu.RLock()
	f := s.onPending
	s.notifyMu.RUnlock()
	if f != nil {
		f(p)
	}
}

func (s *Service) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/outlook/auth/status/", s.StatusHandler())
	mux.HandleFunc("/outlook/auth/pending", s.PendingListHandler())
}

// StatusHandler serves the sign-in page for a pending auth UUID: it renders a
// clickable authorization link and refreshes until the sign-in completes.
func (s *Service) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// URL: /outlook/auth/status/{uuid}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}
		id := parts[3]
		pend, ok := s.pending.Get(id)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if !ok {
			_, _ = fmt.Fprint(w, buildSignInDoneHTML())
			return
		}
		_, _ = fmt.Fprint(w, buildSignInHTML(pend.AuthURL))
	}
}

// PendingListHandler returns JSON of the pending sign-ins.
func (s *Service) PendingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		type row struct {
			UUID    string `json:"uuid"`
			AuthURL string `json:"authURL"`
			Started string `json:"started"`
		}
		list := s.pending.List()
		out := make([]row, 0, len(list))
		for _, v := range list {
			out = append(out, row{UUID: v.UUID, AuthURL: v.AuthURL, Started: v.Started.Format("2006-01-02T15:04:05Z07:00")})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func buildSignInHTML(authURL string) string {
	esc := html.EscapeString(authURL)
	return fmt.Sprintf(`<!doctype html>
<html><head>
<meta http-equiv="refresh" content="3">
<meta charset="utf-8">
<title>Sign in to Outlook</title>
<style>body{font-family:-apple-system,Segoe UI,Roboto,sans-serif;margin:24px}</style>
</head><body>
<h3>Sign in to Outlook</h3>
<p>Click to open: <a href="%[1]s" target="_blank" rel="noopener noreferrer">Microsoft sign-in</a></p>
<p>This page refreshes automatically and closes the loop once you finish.</p>
<p>Keep this tab open; return to your assistant after completing sign-in.</p>
</body></html>`, esc)
}

func buildSignInDoneHTML() string {
	return `<!doctype html>
<html><head><meta charset="utf-8"><title>Sign in to Outlook</title>
<style>body{font-family:-apple-system,Segoe UI,Roboto,sans-serif;margin:24px}</style>
</head><body>
<h3>Sign-in complete</h3>
<p>You can close this tab and return to your assistant.</p>
</body></html>`
}
