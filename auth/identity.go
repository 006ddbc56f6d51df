package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// DefaultCallbackAddr is the loopback address the interactive flow listens on
// for the authorization redirect.
const DefaultCallbackAddr = "127.0.0.1:8766"

// Identity abstracts the Microsoft identity endpoints: the silent refresh-token
// grant and the interactive authorization-code flow.
type Identity interface {
	// Refresh redeems cached refresh material for a fresh credential without
	// user interaction. It returns ErrInteractionRequired when the identity
	// endpoint signals the user has to sign in again.
	Refresh(ctx context.Context, refreshToken string) (*Record, error)
	// Interactive runs a user-facing sign-in: prompt receives the authorization
	// URL, the redirect is captured on a loopback listener and the code is
	// exchanged for a credential.
	Interactive(ctx context.Context, prompt func(authURL string)) (*Record, error)
}

// interactionCodes are OAuth error codes meaning the refresh material cannot be
// redeemed silently and a new sign-in is required.
var interactionCodes = map[string]bool{
	"invalid_grant":        true,
	"interaction_required": true,
	"consent_required":     true,
	"login_required":       true,
	"bad_token":            true,
}

// AzureOptions configures the Azure AD identity client.
type AzureOptions struct {
	ClientID string
	// TenantID or "organizations"/"common".
	TenantID string
	Scopes   []string
	// CallbackAddr is the loopback listen address for the redirect capture.
	CallbackAddr string
	// OpenBrowser launches the system browser with the authorization URL in
	// addition to surfacing it via the prompt callback.
	OpenBrowser bool
	// WaitTimeout bounds how long an interactive sign-in may stay pending.
	WaitTimeout time.Duration
}

// AzureIdentity implements Identity against the Microsoft identity platform
// using the authorization-code flow with PKCE for a public client.
type AzureIdentity struct {
	config       *oauth2.Config
	callbackAddr string
	openBrowser  bool
	waitTimeout  time.Duration
}

func NewAzureIdentity(opts *AzureOptions) *AzureIdentity {
	if opts == nil {
		opts = &AzureOptions{}
	}
	tenant := opts.TenantID
	if tenant == "" {
		tenant = "organizations"
	}
	addr := opts.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	wait := opts.WaitTimeout
	if wait <= 0 {
		wait = 5 * time.Minute
	}
	return &AzureIdentity{
		config: &oauth2.Config{
			ClientID:    opts.ClientID,
			Endpoint:    microsoft.AzureADEndpoint(tenant),
			RedirectURL: "http://" + addr + "/callback",
			Scopes:      scopes,
		},
		callbackAddr: addr,
		openBrowser:  opts.OpenBrowser,
		waitTimeout:  wait,
	}
}

func (a *AzureIdentity) Refresh(ctx context.Context, refreshToken string) (*Record, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no cached refresh token", ErrInteractionRequired)
	}
	src := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && interactionCodes[rerr.ErrorCode] {
			return nil, fmt.Errorf("%w: %s", ErrInteractionRequired, rerr.ErrorCode)
		}
		return nil, fmt.Errorf("refresh token grant: %w", err)
	}
	return a.record(tok), nil
}

func (a *AzureIdentity) Interactive(ctx context.Context, prompt func(string)) (*Record, error) {
	state := uuid.New().String()
	verifier := oauth2.GenerateVerifier()

	listener, err := net.Listen("tcp", a.callbackAddr)
	if err != nil {
		return nil, fmt.Errorf("callback listener: %w", err)
	}

	type outcome struct {
		code string
		err  error
	}
	results := make(chan outcome, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "sign-in failed: "+e, http.StatusBadRequest)
			select {
			case results <- outcome{err: fmt.Errorf("authorization rejected: %s", e)}:
			default:
			}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, signInDoneHTML)
		select {
		case results <- outcome{code: code}:
		default:
		}
	})
	server := &http.Server{Handler: mux}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := a.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	if prompt != nil {
		prompt(authURL)
	}
	if a.openBrowser {
		_ = browser.OpenURL(authURL)
	}

	timer := time.NewTimer(a.waitTimeout)
	defer timer.Stop()
	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errors.New("interactive sign-in timed out")
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	}

	tok, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	return a.record(tok), nil
}

func (a *AzureIdentity) record(tok *oauth2.Token) *Record {
	return &Record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.UTC(),
		Account:      AccountFromToken(tok.AccessToken),
		Scopes:       a.config.Scopes,
	}
}

// AccountFromToken derives a stable account identifier from token claims
// without verifying the signature; verification belongs to the resource server.
func AccountFromToken(raw string) string {
	var claims jwt.MapClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(raw, &claims); err != nil {
		return ""
	}
	for _, key := range []string{"preferred_username", "upn", "oid", "sub"} {
		if v, _ := claims[key].(string); v != "" {
			return v
		}
	}
	return ""
}

// DefaultScopes returns the delegated Graph permissions for mail, calendar,
// people and free/busy lookups, with offline access for silent refresh.
func DefaultScopes() []string {
	return []string{
		"https://graph.microsoft.com/User.Read",
		"https://graph.microsoft.com/Calendars.ReadWrite",
		"https://graph.microsoft.com/Mail.ReadWrite",
		"https://graph.microsoft.com/Mail.Send",
		"https://graph.microsoft.com/People.Read",
		"offline_access",
		"openid",
		"profile",
	}
}

const signInDoneHTML = `<html><body style="font-family: -apple-system, Segoe UI, Roboto, sans-serif;">
<h3>Signed in to Outlook</h3>
<p>You can close this tab and return to your assistant.</p>
</body></html>`
