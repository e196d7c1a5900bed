// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve obtains canonical drug identifiers (DrugBank, PubChem)
// for drug names from external registries. Every lookup is written
// through a durable cache so no registry is ever asked twice for the
// same name across runs.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/meshintel/drugcombs/internal/cache"
	"github.com/meshintel/drugcombs/internal/httputil"
	"github.com/meshintel/drugcombs/pkg/types"
)

// wikidataSearchBase is the knowledge-graph entity search endpoint.
// Declared as a var so tests can substitute an httptest server.
var wikidataSearchBase = "https://www.wikidata.org/w/api.php"

// searchLimit caps the number of ranked entity IDs fetched per query.
const searchLimit = 50

// WikidataResolver maps a drug name to identifiers by searching the
// knowledge graph for matching entities and translating entity IDs
// through two pre-loaded static tables. The tables are small relative to
// the query volume, so they live in memory for the whole run.
type WikidataResolver struct {
	client        *http.Client
	cfg           types.ResolverConfig
	qidToDrugBank map[string]string
	qidToPubChem  map[string]string
	store         *cache.Store
	w             io.Writer
}

// NewWikidataResolver loads both QID mapping tables and wires the durable
// cache. Unreadable mapping files are a configuration error: the resolver
// refuses to start rather than silently resolving everything to Missing.
func NewWikidataResolver(client *http.Client, cfg types.ResolverConfig, store *cache.Store, w io.Writer) (*WikidataResolver, error) {
	qidToDrugBank, err := loadQIDMap(cfg.QIDToDrugBankPath)
	if err != nil {
		return nil, fmt.Errorf("qid to drugbank mapping: %w", err)
	}
	qidToPubChem, err := loadQIDMap(cfg.QIDToPubChemPath)
	if err != nil {
		return nil, fmt.Errorf("qid to pubchem mapping: %w", err)
	}
	if w == nil {
		w = io.Discard
	}
	return &WikidataResolver{
		client:        client,
		cfg:           cfg,
		qidToDrugBank: qidToDrugBank,
		qidToPubChem:  qidToPubChem,
		store:         store,
		w:             w,
	}, nil
}

func loadQIDMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// IDs resolves a name to an identifier pair. The durable cache is
// consulted first; on a miss the graph search runs exactly once and the
// outcome, found or Missing, is cached. Transport failures degrade to
// Missing without a cache write so a later run can retry.
func (r *WikidataResolver) IDs(ctx context.Context, name string) (types.IdentifierPair, error) {
	key := canonicalQuery(name)

	if r.store != nil {
		if value, ok, err := r.store.Get(key); err != nil {
			return types.MissingPair(), fmt.Errorf("wikidata cache read: %w", err)
		} else if ok {
			pair, err := types.DecodePair(value)
			if err != nil {
				return types.MissingPair(), fmt.Errorf("wikidata cache entry for %q: %w", key, err)
			}
			return pair, nil
		}
	}

	qids, err := r.searchQIDs(ctx, key)
	if err != nil {
		// Transient failure: degrade to not-found for this call only.
		fmt.Fprintf(r.w, "warning: wikidata search failed for %q: %v\n", key, err)
		return types.MissingPair(), nil
	}

	pair := r.translate(qids)
	if r.store != nil {
		if err := r.store.Put(key, pair.Encode()); err != nil {
			return pair, fmt.Errorf("wikidata cache write: %w", err)
		}
	}
	return pair, nil
}

// translate picks the first entity ID in rank order that has a mapping
// in either static table and formats the identifiers with their
// canonical "DB"/"CID" prefixes.
func (r *WikidataResolver) translate(qids []string) types.IdentifierPair {
	for _, qid := range qids {
		dbid, hasDB := r.qidToDrugBank[qid]
		cid, hasCID := r.qidToPubChem[qid]
		if !hasDB && !hasCID {
			continue
		}
		pair := types.MissingPair()
		if hasDB {
			pair.DrugBankID = "DB" + dbid
		}
		if hasCID {
			pair.PubChemID = "CID" + cid
		}
		return pair
	}
	return types.MissingPair()
}

// searchQIDs runs the text-matching entity search and returns ranked
// entity IDs. A rate-limit or other non-200 response degrades to no qids
// found.
func (r *WikidataResolver) searchQIDs(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {query},
		"language": {"en"},
		"format":   {"json"},
		"limit":    {fmt.Sprintf("%d", searchLimit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikidataSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("wikidata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikidata returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Search []struct {
			ID string `json:"id"`
		} `json:"search"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing wikidata response: %w", err)
	}

	qids := make([]string, 0, len(payload.Search))
	for _, entry := range payload.Search {
		if entry.ID != "" {
			qids = append(qids, entry.ID)
		}
	}
	return qids, nil
}
