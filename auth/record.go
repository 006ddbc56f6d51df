package auth

import "time"

// DefaultSkew is the safety margin subtracted from a token's expiry so a
// credential is refreshed before clock drift or in-flight latency can bite.
const DefaultSkew = 60 * time.Second

// Record holds the credential material for one signed-in account. AccessToken
// and RefreshToken are secrets and must never be logged.
type Record struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Account      string    `json:"account,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Usable reports whether the access token may still be attached to an outbound
// call, keeping skew as an early-refresh margin before the recorded expiry.
func (r *Record) Usable(now time.Time, skew time.Duration) bool {
	if r == nil || r.AccessToken == "" {
		return false
	}
	return now.Before(r.ExpiresAt.Add(-skew))
}
