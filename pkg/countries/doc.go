// Package countries provides the country reference list used by the policy
// wizard: fetching it once from a public endpoint, sorting it with a
// locale-aware collator, case-insensitive filtering, the picker state behind
// the searchable dropdown, and a small net/http handler that returns JSON
// options for form inputs.
package countries
