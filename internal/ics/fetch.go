package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"evcal/internal/fsutil"
	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// Source represents a single ICS subscription source.
type Source struct {
	// ID is an internal identifier (e.g., config ICS ID).
	ID string
	// URL is the ICS endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single ICS source.
type FetchResult struct {
	Source    Source
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused cached body
}

// cacheEntry holds HTTP cache metadata for a single ICS URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// parsedEntry remembers the events parsed from one body of one source.
type parsedEntry struct {
	sum    [sha256.Size]byte
	events []model.Event
}

// Fetcher downloads ICS feeds, honoring ETag / Last-Modified and falling
// back to the last good body on disk when the network fails. Import keeps
// the parsed events per source so an unchanged feed is not parsed twice.
type Fetcher struct {
	client   *http.Client
	cacheDir string

	mu     sync.Mutex
	parsed map[string]parsedEntry
}

// parseICS is swapped in tests to count parses.
var parseICS = ParseICS

// NewFetcher creates a Fetcher caching under cacheDir. A nil client gets a
// default one with a 15s timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir, parsed: make(map[string]parsedEntry)}
}

// Import fetches every source and returns their events in source order.
// A source whose body hashes the same as last time reuses its parsed
// events. Sources that fail to fetch or parse are skipped and reported.
func (f *Fetcher) Import(ctx context.Context, sources []Source) ([]model.Event, []error) {
	results, errs := f.FetchAll(ctx, sources)

	var events []model.Event
	for _, res := range results {
		parsed, reused, err := f.eventsFor(res)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics source %s: %w", res.Source.ID, err))
			appLog.Error("ics import failed", err, "id", res.Source.ID)
			continue
		}
		appLog.Info("ics source imported",
			"id", res.Source.ID,
			"events", len(parsed),
			"from_cache", res.FromCache,
			"reparsed", !reused,
		)
		events = append(events, parsed...)
	}
	return events, errs
}

func (f *Fetcher) eventsFor(res FetchResult) ([]model.Event, bool, error) {
	key := res.Source.ID + "\x00" + res.Source.URL
	sum := sha256.Sum256(res.Body)

	f.mu.Lock()
	entry, ok := f.parsed[key]
	f.mu.Unlock()
	if ok && entry.sum == sum {
		return cloneEvents(entry.events), true, nil
	}

	events, err := parseICS(res.Source, res.Body)
	if err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	f.parsed[key] = parsedEntry{sum: sum, events: cloneEvents(events)}
	f.mu.Unlock()
	return events, false, nil
}

func cloneEvents(in []model.Event) []model.Event {
	out := make([]model.Event, len(in))
	copy(out, in)
	return out
}

// FetchAll fetches every source. Failures are logged and returned; the
// result slice holds only sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics source %s: %w", src.ID, err))
			appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// FetchOne fetches a single ICS source using a per-URL cache directory.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))
	fallback := func(cause error) (FetchResult, error) {
		if len(cachedBody) == 0 {
			return FetchResult{}, cause
		}
		appLog.Warn("ics fetch failed, using cached body", "id", src.ID, "url", redactURL(src.URL), "cause", cause)
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("ics fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		entry := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, entry, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}
		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil

	default:
		return fallback(errors.New(resp.Status))
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := fsutil.WriteFileAtomic(filepath.Join(cachePath, "body.ics"), body, ".body-*.tmp"); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(cachePath, "meta.json"), data, ".meta-*.tmp")
}

// redactURL keeps only scheme and host; ICS links often embed secrets in
// the path or query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
