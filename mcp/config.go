package mcp

import (
	"os"

	"github.com/viant/scy"
)

// Config controls Outlook MCP server behaviour and authentication.
type Config struct {
	// Azure AD application (client) ID for Microsoft Graph.
	ClientID string `json:"clientID"`
	// Tenant ID or "organizations"/"common".
	TenantID string `json:"tenantID"`
	// Scopes overrides the default delegated Graph permissions.
	Scopes []string `json:"scopes,omitempty"`

	// CacheURL is the afs base URL where credential records are persisted,
	// one per account. Defaults to file://$HOME/.mcp-outlook.
	CacheURL string `json:"cacheURL,omitempty"`

	// CallbackAddr is the loopback listen address for the interactive sign-in
	// redirect capture.
	CallbackAddr string `json:"callbackAddr,omitempty"`
	// CallbackBaseURL is used to generate absolute URLs for the sign-in pages.
	// Example: http://localhost:7788
	CallbackBaseURL string `json:"callbackBaseURL,omitempty"`
	// OpenBrowser launches the system browser with the authorization URL when
	// an interactive sign-in starts.
	OpenBrowser bool `json:"openBrowser,omitempty"`

	// If true, return tool results in the structured field instead of text.
	UseData bool `json:"useData,omitempty"`

	// AzureRef optionally points to an Azure OAuth2 client config stored as a
	// scy resource, using EncodedResource syntax: "<URL>|<kmsKey>" where the
	// key part is optional. The referenced content should unmarshal into
	// github.com/viant/scy/cred.Azure.
	AzureRef scy.EncodedResource `json:"azureRef,omitempty"`
}

func (c *Config) applyDefaults() {
	if c.TenantID == "" {
		c.TenantID = "organizations"
	}
	if c.CacheURL == "" {
		home, _ := os.UserHomeDir()
		if home == "" {
			home = "."
		}
		c.CacheURL = "file://" + home + "/.mcp-outlook"
	}
}
