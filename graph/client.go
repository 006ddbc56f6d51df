package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	neturl "net/url"
	"os"
	"strings"

	"github.com/kacase/mcp-outlook/auth"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// TokenProvider supplies a valid bearer token for outbound Graph calls and
// accepts invalidation when the remote side refuses one. auth.Manager
// satisfies it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate(token string)
}

// Client attaches credentials to every Graph request and normalizes remote
// failures. All operation services route through it; it is the only place that
// talks HTTP to the Graph endpoint.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenProvider
}

func NewClient(tokens TokenProvider) *Client {
	return &Client{baseURL: defaultBaseURL, httpc: http.DefaultClient, tokens: tokens}
}

// SetBaseURL overrides the Graph endpoint; tests point it at a local server.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

func (c *Client) SetHTTPClient(h *http.Client) {
	if h != nil {
		c.httpc = h
	}
}

func (c *Client) Get(ctx context.Context, path string, query neturl.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, nil)
}

// call performs one Graph request. On an auth-rejected response it forces
// re-acquisition and retries exactly once; a second rejection surfaces as
// AuthenticationFailed with no third attempt. Non-auth failures map to
// RemoteError and are never retried here.
func (c *Client) call(ctx context.Context, method, path string, query neturl.Values, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		debugfGraph("%s %s: token rejected, refreshing once", method, path)
		c.tokens.Invalidate(token)
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, query, body, token)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return fmt.Errorf("%w: graph rejected refreshed token", auth.ErrAuthenticationFailed)
		}
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query neturl.Values, body any, token string) (*http.Response, error) {
	url := c.baseURL + path
	if enc := query.Encode(); enc != "" {
		url += "?" + enc
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph call: %w", err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return remoteError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func remoteError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(data, &envelope)
	return &RemoteError{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func debugfGraph(format string, args ...any) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OUTLOOK_MCP_DEBUG")))
	if v != "" && v != "0" && v != "false" {
		log.Printf("[outlook] "+format, args...)
	}
}
