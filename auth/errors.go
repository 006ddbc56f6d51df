package auth

import "errors"

var (
	// ErrCacheUnavailable reports a token cache storage failure. The Manager
	// absorbs it and falls through to re-acquisition; it never reaches callers.
	ErrCacheUnavailable = errors.New("token cache unavailable")

	// ErrInteractionRequired means silent acquisition cannot proceed without the
	// user signing in again (revoked consent, expired refresh material).
	ErrInteractionRequired = errors.New("user interaction required")

	// ErrAuthenticationFailed means acquisition terminated without a usable
	// credential. Terminal for the request that observed it.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
