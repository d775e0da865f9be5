package countries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-policyforge/internal/logging"
)

// DefaultURL is the public reference list the wizard was built around.
const DefaultURL = "https://cdn.jsdelivr.net/npm/country-flag-emoji-json@2.0.0/dist/index.json"

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithURL overrides the reference endpoint.
func WithURL(url string) FetcherOption {
	return func(f *Fetcher) {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			f.url = trimmed
		}
	}
}

// WithTimeout bounds a single Fetch call, retries included. Zero disables
// the bound.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout >= 0 {
			f.timeout = timeout
		}
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(retries int) FetcherOption {
	return func(f *Fetcher) {
		if retries >= 0 {
			f.client.RetryMax = retries
		}
	}
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(minWait, maxWait time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if minWait > 0 {
			f.client.RetryWaitMin = minWait
		}
		if maxWait > 0 {
			f.client.RetryWaitMax = maxWait
		}
	}
}

// WithHTTPClient sets the transport client used underneath the retry layer.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client.HTTPClient = client
		}
	}
}

// WithLogger routes fetch and retry diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher downloads and decodes the reference list.
type Fetcher struct {
	url     string
	timeout time.Duration
	client  *retryablehttp.Client
	logger  logrus.FieldLogger
}

// NewFetcher returns a fetcher for DefaultURL with a 10s timeout and two
// retries.
func NewFetcher(options ...FetcherOption) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 250 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second

	f := &Fetcher{
		url:     DefaultURL,
		timeout: 10 * time.Second,
		client:  client,
		logger:  logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	f.client.Logger = leveledLogger{logger: f.logger}
	return f
}

// URL reports the endpoint the fetcher reads.
func (f *Fetcher) URL() string { return f.url }

// Fetch performs one GET of the reference endpoint and decodes the result.
func (f *Fetcher) Fetch(ctx context.Context) ([]Entry, error) {
	if ctx == nil {
		return nil, errors.New("countries: context is required")
	}

	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("countries: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("countries: fetch %s: %w", f.url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("countries: fetch %s: unexpected status %s", f.url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("countries: read body: %w", err)
	}
	return Decode(data)
}

// Source is anything that can hand out the current reference list.
type Source interface {
	Entries() []Entry
}

// Catalog holds the reference list for the process lifetime. The list is
// fetched at most once; a failed fetch is logged and leaves the catalog
// empty until the process restarts.
type Catalog struct {
	fetcher   *Fetcher
	logger    logrus.FieldLogger
	onFailure func(error)

	once    sync.Once
	mu      sync.RWMutex
	entries []Entry
	err     error
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithCatalogLogger sets the logger used to report a failed load.
func WithCatalogLogger(logger logrus.FieldLogger) CatalogOption {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFailureHook is invoked once when the load fails, e.g. to bump a metric.
func WithFailureHook(fn func(error)) CatalogOption {
	return func(c *Catalog) {
		c.onFailure = fn
	}
}

// NewCatalog returns a catalog that loads through fetcher.
func NewCatalog(fetcher *Fetcher, options ...CatalogOption) *Catalog {
	c := &Catalog{
		fetcher: fetcher,
		logger:  logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// NewStaticCatalog returns an already-loaded catalog holding a sorted copy of
// entries.
func NewStaticCatalog(entries []Entry) *Catalog {
	c := &Catalog{logger: logging.Discard()}
	c.once.Do(func() {
		c.entries = append([]Entry{}, entries...)
		Sort(c.entries)
	})
	return c
}

// Load fetches the list on the first call and returns the entries. Later
// calls return the cached result without touching the network.
func (c *Catalog) Load(ctx context.Context) []Entry {
	c.once.Do(func() {
		if c.fetcher == nil {
			c.setResult(nil, errors.New("countries: catalog has no fetcher"))
			return
		}
		entries, err := c.fetcher.Fetch(ctx)
		c.setResult(entries, err)
	})
	return c.Entries()
}

func (c *Catalog) setResult(entries []Entry, err error) {
	c.mu.Lock()
	c.entries = entries
	c.err = err
	c.mu.Unlock()

	if err == nil {
		c.logger.WithField("count", len(entries)).Info("country list loaded")
		return
	}
	c.logger.WithError(err).Error("error fetching countries")
	if c.onFailure != nil {
		c.onFailure(err)
	}
}

// Entries returns a copy of the loaded list; empty before Load or after a
// failed load.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry{}, c.entries...)
}

// Err reports the load failure, if any.
func (c *Catalog) Err() error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Contains reports whether name is an entry of the loaded list.
func (c *Catalog) Contains(name string) bool {
	_, ok := Find(c.Entries(), name)
	return ok
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger logrus.FieldLogger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) fields(keysAndValues []interface{}) logrus.FieldLogger {
	entry := l.logger
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		entry = entry.WithField(key, keysAndValues[i+1])
	}
	return entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
