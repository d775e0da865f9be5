package cli

import (
	"context"
	"fmt"

	"github.com/goliatone/go-policyforge/internal/metrics"
	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

func (a *app) catalog(m *metrics.Metrics) *countries.Catalog {
	fetcher := countries.NewFetcher(
		countries.WithURL(a.cfg.Countries.URL),
		countries.WithTimeout(a.cfg.Countries.Timeout),
		countries.WithRetries(a.cfg.Countries.Retries),
		countries.WithLogger(a.logger),
	)
	return countries.NewCatalog(fetcher,
		countries.WithCatalogLogger(a.logger),
		countries.WithFailureHook(func(error) {
			m.IncrementCountryFetchFailure()
		}),
	)
}

// loadCatalog fetches the reference list once and records its size.
func loadCatalog(ctx context.Context, catalog *countries.Catalog, m *metrics.Metrics) []countries.Entry {
	entries := catalog.Load(ctx)
	m.SetCountryEntries(len(entries))
	return entries
}

func (a *app) definition() (wizard.Definition, error) {
	if a.cfg.Wizard.Definition == "" {
		return wizard.DefaultDefinition()
	}
	def, err := wizard.LoadFile(a.cfg.Wizard.Definition)
	if err != nil {
		return wizard.Definition{}, fmt.Errorf("cli: %w", err)
	}
	return def, nil
}

func (a *app) assembler() (*policy.Assembler, error) {
	return policy.NewAssembler(policy.WithBrand(a.cfg.Policy.Brand))
}
