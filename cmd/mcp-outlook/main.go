package main

import (
	"context"
	"log"
	"os"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/viant/mcp-protocol/authorization"
	oauthmeta "github.com/viant/mcp-protocol/oauth2/meta"
	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"
	serverauth "github.com/viant/mcp/server/auth"
	"github.com/viant/scy"
	"github.com/viant/scy/auth/flow"
	"github.com/viant/scy/cred"
	_ "github.com/viant/scy/kms/blowfish"

	"github.com/kacase/mcp-outlook/mcp"
)

// Options defines CLI flags for the Outlook MCP server.
type Options struct {
	HTTPAddr     string `short:"a" long:"addr" description:"HTTP listen address (empty disables HTTP)"`
	ClientID     string `long:"client-id" description:"Azure AD application (client) ID"`
	TenantID     string `long:"tenant-id" description:"Tenant ID or 'organizations'"`
	CacheURL     string `long:"cache-url" description:"AFS base URL for persisting credential records (default file://$HOME/.mcp-outlook)"`
	CallbackAddr string `long:"callback-addr" description:"Loopback listen address for the sign-in redirect"`
	OpenBrowser  bool   `long:"open-browser" description:"Open the system browser when sign-in is required"`
	AzureRef     string `long:"azure-ref" description:"scy EncodedResource for Azure cred (e.g., gcp://...|blowfish://default)"`
	Oauth2Config string `short:"o" long:"oauth2config" description:"Path to JSON OAuth2 configuration file (scy EncodedResource)"`
	UseIdToken   bool   `short:"i" long:"use-id-token" description:"Use ID token (instead of access token) for identity scoping"`
}

func main() {
	var opts Options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		os.Exit(2)
	}
	// Apply simple defaults and env fallbacks
	if opts.TenantID == "" {
		opts.TenantID = envOr("OUTLOOK_TENANT_ID", "organizations")
	}
	if opts.ClientID == "" {
		opts.ClientID = envOr("OUTLOOK_CLIENT_ID", "")
	}
	if opts.AzureRef == "" {
		opts.AzureRef = envOr("OUTLOOK_AZURE_REF", "")
	}
	if opts.CacheURL == "" {
		opts.CacheURL = envOr("OUTLOOK_CACHE_URL", "")
	}
	if opts.ClientID == "" && opts.AzureRef == "" {
		log.Fatal("missing --client-id/OUTLOOK_CLIENT_ID (or provide --azure-ref / OUTLOOK_AZURE_REF)")
	}

	// Derive the sign-in page base URL from the listen address.
	baseURL := "http://localhost"
	if opts.HTTPAddr != "" {
		hostport := opts.HTTPAddr
		if hostport[0] == ':' {
			hostport = "localhost" + hostport
		}
		baseURL = "http://" + hostport
	}

	svc := mcp.NewService(&mcp.Config{
		ClientID:        opts.ClientID,
		TenantID:        opts.TenantID,
		CacheURL:        opts.CacheURL,
		CallbackAddr:    opts.CallbackAddr,
		CallbackBaseURL: baseURL,
		OpenBrowser:     opts.OpenBrowser,
		AzureRef:        scy.EncodedResource(opts.AzureRef),
	})

	options := []mcpsrv.Option{
		mcpsrv.WithImplementation(schema.Implementation{Name: "mcp-outlook", Version: "0.1.0"}),
		mcpsrv.WithNewHandler(mcp.NewHandler(svc)),
		mcpsrv.WithEndpointAddress(opts.HTTPAddr),
		mcpsrv.WithRootRedirect(true),
		mcpsrv.WithStreamableURI("/mcp"),
		mcpsrv.WithCustomHTTPHandler("/outlook/auth/status/", svc.StatusHandler()),
		mcpsrv.WithCustomHTTPHandler("/outlook/auth/pending", svc.PendingListHandler()),
	}

	// Optional server-level OAuth2
	if v := strings.TrimSpace(opts.Oauth2Config); v != "" {
		res := scy.EncodedResource(v).Decode(context.Background(), cred.Oauth2Config{})
		sec, err := scy.New().Load(context.Background(), res)
		if err != nil {
			log.Fatalf("failed to load oauth2config: %v", err)
		}
		oc, ok := sec.Target.(*cred.Oauth2Config)
		if !ok {
			log.Fatalf("invalid oauth2config secret type")
		}
		authPolicy := &authorization.Policy{
			Global: &authorization.Authorization{
				UseIdToken: opts.UseIdToken,
				ProtectedResourceMetadata: &oauthmeta.ProtectedResourceMetadata{
					AuthorizationServers: []string{oc.Config.Endpoint.AuthURL},
				}},
			// Allow SSE and the sign-in pages without auth; protect /mcp
			ExcludeURI: "/sse,/outlook/auth/",
		}
		bff := &serverauth.BackendForFrontend{Client: &oc.Config, AuthorizationExchangeHeader: flow.AuthorizationExchangeHeader}
		authSvc, err := serverauth.New(&serverauth.Config{Policy: authPolicy, BackendForFrontend: bff})
		if err != nil {
			log.Fatalf("failed to init auth service: %v", err)
		}
		options = append(options,
			mcpsrv.WithAuthorizer(authSvc.Middleware),
			mcpsrv.WithProtectedResourcesHandler(authSvc.ProtectedResourcesHandler),
		)
	}

	server, err := mcpsrv.New(options...)
	if err != nil {
		log.Fatal(err)
	}
	if opts.HTTPAddr != "" {
		// Enable streamable HTTP so the /mcp endpoint is active
		server.UseStreamableHTTP(true)
		if err := server.HTTP(context.Background(), opts.HTTPAddr).ListenAndServe(); err != nil {
			log.Fatal(err)
		}
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
