package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// Cache persists at most one credential record per account identifier under an
// afs base URL (file:// in production, mem:// in tests). Records are written
// 0600 to a per-user location and are never transmitted anywhere else.
type Cache struct {
	baseURL string
	fs      afs.Service
}

func NewCache(baseURL string) *Cache {
	return &Cache{baseURL: strings.TrimRight(ExpandPath(baseURL), "/"), fs: afs.New()}
}

func (c *Cache) recordURL(account string) string {
	if account == "" {
		account = "default"
	}
	return c.baseURL + "/" + safePart(account) + "/token.json"
}

// Load returns the stored record for account, or nil when absent. Storage
// failures come back as ErrCacheUnavailable so the caller can treat them as a
// cache miss.
func (c *Cache) Load(ctx context.Context, account string) (*Record, error) {
	url := c.recordURL(account)
	ok, err := c.fs.Exists(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: exists %v", ErrCacheUnavailable, err)
	}
	if !ok {
		return nil, nil
	}
	reader, err := c.fs.OpenURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: open %v", ErrCacheUnavailable, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read %v", ErrCacheUnavailable, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode %v", ErrCacheUnavailable, err)
	}
	return &rec, nil
}

// Store overwrites any prior record for account in a single upload.
func (c *Cache) Store(ctx context.Context, account string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode %v", ErrCacheUnavailable, err)
	}
	if err := c.fs.Upload(ctx, c.recordURL(account), 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: upload %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Clear removes the stored record for account. Clearing an absent record is not
// an error.
func (c *Cache) Clear(ctx context.Context, account string) error {
	url := c.recordURL(account)
	ok, err := c.fs.Exists(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: exists %v", ErrCacheUnavailable, err)
	}
	if !ok {
		return nil
	}
	if err := c.fs.Delete(ctx, url); err != nil {
		return fmt.Errorf("%w: delete %v", ErrCacheUnavailable, err)
	}
	return nil
}

func safePart(s string) string {
	s = strings.TrimSpace(s)
	// Replace characters unsafe for filenames or caches
	repl := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "|", "_", " ", "_", "@", "_")
	return repl.Replace(s)
}

// ExpandPath expands env vars and a leading ~ in file based cache locations.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
