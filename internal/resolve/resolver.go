// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"

	"github.com/meshintel/drugcombs/internal/normalize"
	"github.com/meshintel/drugcombs/pkg/types"
)

// Resolver combines the knowledge-graph and compound-registry lookups
// into one identifier resolution strategy over a list of candidate names
// for the same drug.
type Resolver struct {
	wiki     *WikidataResolver
	registry *RegistryResolver
}

// NewResolver builds the orchestrating resolver.
func NewResolver(wiki *WikidataResolver, registry *RegistryResolver) *Resolver {
	return &Resolver{wiki: wiki, registry: registry}
}

// Resolve tries each candidate name in order until a confident
// identifier pair is assembled.
//
// A nil candidate list resolves to (Missing, Missing) immediately. If
// any candidate mentions a placebo the whole record is a placebo arm and
// no external lookup runs. Otherwise the graph lookup fills whichever
// identifiers are still missing, the registry lookup overrides the
// DrugBank ID whenever it has an answer, and iteration stops as soon as
// both identifiers are set.
func (r *Resolver) Resolve(ctx context.Context, names []string) (types.IdentifierPair, error) {
	if names == nil {
		return types.MissingPair(), nil
	}
	if normalize.ContainsPlacebo(names) {
		return types.PlaceboPair(), nil
	}

	result := types.MissingPair()
	for _, name := range names {
		pair, err := r.wiki.IDs(ctx, name)
		if err != nil {
			return result, err
		}
		if result.DrugBankID == types.Missing && pair.DrugBankID != types.Missing {
			result.DrugBankID = pair.DrugBankID
		}
		if result.PubChemID == types.Missing && pair.PubChemID != types.Missing {
			result.PubChemID = pair.PubChemID
		}

		dbid, err := r.registry.DrugBankID(ctx, name)
		if err != nil {
			return result, err
		}
		if dbid != types.Missing && dbid != "" {
			result.DrugBankID = dbid
		}

		if result.Complete() {
			break
		}
	}
	return result, nil
}

// ResolveName resolves a single name. The empty string means there is
// nothing to resolve and yields ("", ""), which callers distinguish from
// the searched-but-not-found (Missing, Missing).
func (r *Resolver) ResolveName(ctx context.Context, name string) (types.IdentifierPair, error) {
	if name == "" {
		return types.IdentifierPair{}, nil
	}
	return r.Resolve(ctx, []string{name})
}
