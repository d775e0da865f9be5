package policyforge

import (
	"io/fs"

	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

// NewCountryCatalog returns a catalog that fetches the reference list once
// through a retrying fetcher configured by options.
func NewCountryCatalog(options ...countries.FetcherOption) *countries.Catalog {
	return countries.NewCatalog(countries.NewFetcher(options...))
}

// LoadDefinition parses wizard step definitions from fsys.
func LoadDefinition(fsys fs.FS, path string) (wizard.Definition, error) {
	return wizard.LoadFS(fsys, path)
}

// EmbeddedTemplates exposes the built-in policy template so callers can copy
// and customise it.
func EmbeddedTemplates() fs.FS {
	return policy.TemplatesFS()
}
