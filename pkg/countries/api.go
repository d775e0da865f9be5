package countries

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultAPIPath is where Register mounts the search endpoint.
	DefaultAPIPath = "/api/countries"

	defaultLimit = 50
	maxLimit     = 300
)

// Mux is satisfied by *http.ServeMux and chi.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// APIOption configures an API.
type APIOption func(*API)

// WithPath overrides DefaultAPIPath.
func WithPath(path string) APIOption {
	return func(a *API) {
		if path = strings.TrimSpace(path); path != "" {
			a.path = path
		}
	}
}

// WithLimits sets the result count used when the request has no limit and
// the ceiling applied when it does. Non-positive values keep the defaults.
func WithLimits(def, max int) APIOption {
	return func(a *API) {
		if def > 0 {
			a.defaultLimit = def
		}
		if max > 0 {
			a.maxLimit = max
		}
	}
}

// WithEmptyQueryResults controls whether a request without q lists the head
// of the catalog (the default) or returns nothing.
func WithEmptyQueryResults(enabled bool) APIOption {
	return func(a *API) { a.listOnEmpty = enabled }
}

// API serves GET {path}?q=&limit= as {"data":[{"value","label","emoji"}]}.
// Entries are read from the source on every request, so a catalog that
// finishes loading after startup is served without re-registering.
type API struct {
	source       Source
	path         string
	defaultLimit int
	maxLimit     int
	listOnEmpty  bool
}

type apiResponse struct {
	Data  []Option `json:"data"`
	Error string   `json:"error,omitempty"`
}

// NewAPI builds the search endpoint over source. A nil source serves an
// empty list.
func NewAPI(source Source, options ...APIOption) *API {
	a := &API{
		source:       source,
		path:         DefaultAPIPath,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		listOnEmpty:  true,
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	if a.defaultLimit > a.maxLimit {
		a.defaultLimit = a.maxLimit
	}
	return a
}

// Path returns the route the endpoint answers on, relative to a mount point.
func (a *API) Path() string { return a.path }

// Register mounts the endpoint under basePath and returns the full pattern.
func (a *API) Register(mux Mux, basePath string) (string, error) {
	if mux == nil {
		return "", errors.New("countries: missing mux")
	}
	pattern := joinPath(basePath, a.path)
	mux.Handle(pattern, a)
	return pattern, nil
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	entries := a.entries()
	status := http.StatusOK
	resp := apiResponse{Data: []Option{}}

	if len(entries) == 0 && a.failed() {
		status = http.StatusServiceUnavailable
		resp.Error = "country list unavailable"
	} else {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query != "" || a.listOnEmpty {
			limit := a.limit(r.URL.Query().Get("limit"))
			for _, e := range Search(entries, query, limit) {
				resp.Data = append(resp.Data, toOption(e))
			}
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (a *API) entries() []Entry {
	if a.source == nil {
		return nil
	}
	return a.source.Entries()
}

// failed reports whether the source is a catalog whose fetch errored.
func (a *API) failed() bool {
	reporter, ok := a.source.(interface{ Err() error })
	return ok && reporter.Err() != nil
}

func (a *API) limit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return a.defaultLimit
	}
	if n > a.maxLimit {
		return a.maxLimit
	}
	return n
}

func joinPath(basePath, route string) string {
	route = "/" + strings.TrimLeft(strings.TrimSpace(route), "/")
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return route
	}
	return "/" + basePath + route
}
