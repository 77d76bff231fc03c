package registry

import (
	"slices"

	"exporthub/pkg/types"
)

// entry pairs a resolved card with the folder it physically lives in.
type entry struct {
	folder string
	card   types.ModelCard
}

// Catalog is the immutable result of one scan. Accessors return copies.
type Catalog struct {
	root    string
	orgs    []string
	entries []entry
}

// Root is the absolute configs root the catalog was built from.
func (c *Catalog) Root() string { return c.root }

// Organizations returns the top-level folder names in lexicographic order.
func (c *Catalog) Organizations() []string { return slices.Clone(c.orgs) }

// Len is the number of cards loaded.
func (c *Catalog) Len() int { return len(c.entries) }

// ByOrganization returns every card whose effective organization is org.
// Cards stored in folder org come first, then cards claimed from other
// folders, each group in scan order. A file appears at most once.
func (c *Catalog) ByOrganization(org string) []types.ModelCard {
	out := make([]types.ModelCard, 0)
	for _, e := range c.entries {
		if e.folder == org && e.card.Organization == org {
			out = append(out, e.card.Clone())
		}
	}
	for _, e := range c.entries {
		if e.folder != org && e.card.Organization == org {
			out = append(out, e.card.Clone())
		}
	}
	return out
}

// Grouped buckets every card by effective organization. Each bucket has the
// same order ByOrganization would produce for that key.
func (c *Catalog) Grouped() map[string][]types.ModelCard {
	out := make(map[string][]types.ModelCard)
	for _, native := range []bool{true, false} {
		for _, e := range c.entries {
			if (e.folder == e.card.Organization) != native {
				continue
			}
			org := e.card.Organization
			out[org] = append(out[org], e.card.Clone())
		}
	}
	return out
}
