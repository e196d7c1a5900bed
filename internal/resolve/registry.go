// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/meshintel/drugcombs/internal/cache"
	"github.com/meshintel/drugcombs/internal/httputil"
	"github.com/meshintel/drugcombs/pkg/types"
)

// Compound registry (PubChem PUG) endpoints. Declared as vars so tests
// can substitute httptest servers.
var (
	pubchemXrefsByNameBase = "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/name"
	pubchemXrefsByCIDBase  = "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/cid"
)

const xrefsSuffix = "xrefs/RegistryID,RN,PubMedID/JSON"

// RegistryResolver queries the chemical-compound registry by name and
// extracts DrugBank cross-references from its results. Registry evidence
// takes priority over graph evidence for the DrugBank ID: a compound
// record that cross-references DrugBank is a direct curated link, while
// the graph mapping is one hop removed.
type RegistryResolver struct {
	client *http.Client
	cfg    types.ResolverConfig
	store  *cache.Store
	w      io.Writer
}

// NewRegistryResolver wires the compound-registry client with its
// durable cache.
func NewRegistryResolver(client *http.Client, cfg types.ResolverConfig, store *cache.Store, w io.Writer) *RegistryResolver {
	if w == nil {
		w = io.Discard
	}
	return &RegistryResolver{client: client, cfg: cfg, store: store, w: w}
}

type xrefsPayload struct {
	InformationList struct {
		Information []struct {
			CID        int64    `json:"CID"`
			RegistryID []string `json:"RegistryID"`
		} `json:"Information"`
	} `json:"InformationList"`
}

// DrugBankID looks up the registry's DrugBank cross-reference for a drug
// name. It returns Missing when the registry has no record or no
// DrugBank cross-reference; both outcomes are cached. Transport failures
// degrade to Missing without a cache write.
func (r *RegistryResolver) DrugBankID(ctx context.Context, name string) (string, error) {
	key := canonicalQuery(name)

	if r.store != nil {
		if value, ok, err := r.store.Get(key); err != nil {
			return types.Missing, fmt.Errorf("registry cache read: %w", err)
		} else if ok {
			return value, nil
		}
	}

	reqURL := fmt.Sprintf("%s/%s/%s", pubchemXrefsByNameBase, url.PathEscape(key), xrefsSuffix)
	dbid, found, err := r.fetchDrugBankXref(ctx, reqURL)
	if err != nil {
		fmt.Fprintf(r.w, "warning: compound registry lookup failed for %q: %v\n", key, err)
		return types.Missing, nil
	}
	if !found {
		dbid = types.Missing
	}

	if r.store != nil {
		if err := r.store.Put(key, dbid); err != nil {
			return dbid, fmt.Errorf("registry cache write: %w", err)
		}
	}
	return dbid, nil
}

// DrugBankIDByCID looks up the DrugBank cross-reference for a compound
// ID directly. Uncached; used for spot checks rather than batch runs.
func (r *RegistryResolver) DrugBankIDByCID(ctx context.Context, cid string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/%s", pubchemXrefsByCIDBase, url.PathEscape(cid), xrefsSuffix)
	dbid, found, err := r.fetchDrugBankXref(ctx, reqURL)
	if err != nil {
		return types.Missing, err
	}
	if !found {
		return types.Missing, nil
	}
	return dbid, nil
}

func (r *RegistryResolver) fetchDrugBankXref(ctx context.Context, reqURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, r.client, req, 0)
	if err != nil {
		return "", false, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	// The registry answers 404 for unknown names; that is an ordinary
	// not-found, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("registry returned HTTP %d", resp.StatusCode)
	}

	var payload xrefsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("parsing registry response: %w", err)
	}

	for _, info := range payload.InformationList.Information {
		for _, id := range info.RegistryID {
			if strings.HasPrefix(id, "DB") {
				return id, true, nil
			}
		}
	}
	return "", false, nil
}

// canonicalQuery trims surrounding whitespace and tabs from a lookup
// key. Cache keys and request parameters always go through this so that
// spacing variants of the same name collide into one cache entry.
func canonicalQuery(name string) string {
	return strings.TrimSpace(strings.Trim(name, "\t"))
}
