package server

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-policyforge/internal/metrics"
	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

const (
	defaultCookieName = "policyforge_session"
	defaultSessionTTL = 2 * time.Hour
	defaultBrand      = "PolicyForge"
)

// Option configures a Server.
type Option func(*Server)

// WithDefinition sets the step definitions every session runs.
func WithDefinition(def wizard.Definition) Option {
	return func(s *Server) {
		if len(def.Steps) > 0 {
			s.definition = def
		}
	}
}

// WithCountries sets the reference list behind the picker and the search
// endpoint.
func WithCountries(source countries.Source) Option {
	return func(s *Server) {
		if source != nil {
			s.countries = source
		}
	}
}

// WithAssembler sets the policy assembler shared by every session.
func WithAssembler(assembler wizard.Assembler) Option {
	return func(s *Server) {
		if assembler != nil {
			s.assembler = assembler
		}
	}
}

// WithGenerationDelay sets the simulated generation latency.
func WithGenerationDelay(delay time.Duration) Option {
	return func(s *Server) {
		if delay >= 0 {
			s.delay = delay
		}
	}
}

// WithMetrics attaches Prometheus metrics and exposes them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the server logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTemplatesDir loads views from disk ahead of the embedded set.
func WithTemplatesDir(dir string) Option {
	return func(s *Server) { s.templatesDir = dir }
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithBrand sets the product name shown in page chrome.
func WithBrand(brand string) Option {
	return func(s *Server) {
		if brand != "" {
			s.brand = brand
		}
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}
