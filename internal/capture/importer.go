// Package capture turns traffic captured by powhttp into raw requests that
// can be opened as views and minimized.
package capture

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Imported is a captured request rendered as raw HTTP/1.1.
type Imported struct {
	EntryID string
	Request *rawhttp.Request
	Target  rawhttp.Target
}

// EntryGetter fetches a single captured entry.
type EntryGetter interface {
	GetEntry(ctx context.Context, sessionID, entryID string) (*Entry, error)
}

// Importer fetches entries and caches them by entry ID.
type Importer struct {
	api   EntryGetter
	cache *lru.Cache[string, *Entry]
}

// NewImporter creates an importer with an LRU cache of maxItems entries.
func NewImporter(api EntryGetter, maxItems int) (*Importer, error) {
	c, err := lru.New[string, *Entry](maxItems)
	if err != nil {
		return nil, err
	}
	return &Importer{api: api, cache: c}, nil
}

// Import fetches an entry, checking the cache first, and renders its request.
// The "active" entry is never cached since it changes with the UI selection.
func (im *Importer) Import(ctx context.Context, sessionID, entryID string) (*Imported, error) {
	entry, ok := im.cache.Get(entryID)
	if !ok {
		var err error
		entry, err = im.api.GetEntry(ctx, sessionID, entryID)
		if err != nil {
			return nil, err
		}
		if entryID != "active" {
			im.cache.Add(entryID, entry)
		}
	}
	return Render(entry)
}

// Render converts a captured entry into a raw HTTP/1.1 request and target.
// HTTP/2 pseudo-headers are dropped and ":authority" becomes Host when the
// capture has no Host header.
func Render(entry *Entry) (*Imported, error) {
	u, err := url.Parse(entry.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing entry URL %q: %w", entry.URL, err)
	}
	target, err := rawhttp.ParseTarget(u.Scheme + "://" + u.Host)
	if err != nil {
		return nil, err
	}

	method := "GET"
	if entry.Request.Method != nil && *entry.Request.Method != "" {
		method = *entry.Request.Method
	}
	path := u.RequestURI()
	if entry.Request.Path != nil && *entry.Request.Path != "" {
		path = *entry.Request.Path
	}

	lines := []string{method + " " + path + " HTTP/1.1"}
	host := entry.Request.Headers.Get("Host")
	if host == "" {
		host = entry.Request.Headers.Get(":authority")
		if host == "" {
			host = u.Host
		}
		lines = append(lines, "Host: "+host)
	}
	for _, h := range entry.Request.Headers {
		if len(h) < 2 || strings.HasPrefix(h[0], ":") {
			continue
		}
		lines = append(lines, h[0]+": "+h[1])
	}

	body, err := DecodeBody(entry.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding request body of entry %q: %w", entry.ID, err)
	}

	return &Imported{
		EntryID: entry.ID,
		Request: rawhttp.New(lines, body),
		Target:  target,
	}, nil
}
