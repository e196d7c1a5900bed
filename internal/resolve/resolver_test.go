// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meshintel/drugcombs/pkg/types"
)

// stubBackends wires a Resolver against canned wikidata and registry
// responses, counting calls to each endpoint per queried name.
type stubBackends struct {
	wikiQIDs     map[string][]string          // name -> qids
	registryIDs  map[string][]string          // name -> registry xrefs
	wikiCalls    map[string]int
	registryCalls map[string]int
}

func newStubBackends() *stubBackends {
	return &stubBackends{
		wikiQIDs:      make(map[string][]string),
		registryIDs:   make(map[string][]string),
		wikiCalls:     make(map[string]int),
		registryCalls: make(map[string]int),
	}
}

func (s *stubBackends) totalCalls() int {
	n := 0
	for _, c := range s.wikiCalls {
		n += c
	}
	for _, c := range s.registryCalls {
		n += c
	}
	return n
}

// newTestResolver builds a Resolver whose external endpoints are stub
// servers and whose QID tables come from the given JSON.
func newTestResolver(t *testing.T, s *stubBackends, qidToDrugBank, qidToPubChem string) *Resolver {
	t.Helper()

	wikiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("search")
		s.wikiCalls[name]++
		type entry struct {
			ID string `json:"id"`
		}
		var payload struct {
			Search []entry `json:"search"`
		}
		for _, qid := range s.wikiQIDs[name] {
			payload.Search = append(payload.Search, entry{ID: qid})
		}
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(wikiSrv.Close)

	registrySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path shape: /name/<drug>/xrefs/...
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/name/"), "/", 2)
		name := parts[0]
		s.registryCalls[name]++
		ids, ok := s.registryIDs[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"InformationList":{"Information":[{"CID":2244,"RegistryID":[`)
		for i, id := range ids {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%q", id)
		}
		fmt.Fprint(w, `]}]}}`)
	}))
	t.Cleanup(registrySrv.Close)

	oldWiki, oldRegistry := wikidataSearchBase, pubchemXrefsByNameBase
	wikidataSearchBase = wikiSrv.URL
	pubchemXrefsByNameBase = registrySrv.URL + "/name"
	t.Cleanup(func() {
		wikidataSearchBase = oldWiki
		pubchemXrefsByNameBase = oldRegistry
	})

	cfg := writeQIDMaps(t, qidToDrugBank, qidToPubChem)
	wiki, err := NewWikidataResolver(http.DefaultClient, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	registry := NewRegistryResolver(http.DefaultClient, cfg, nil, nil)
	return NewResolver(wiki, registry)
}

func TestResolveNilNames(t *testing.T) {
	s := newStubBackends()
	r := newTestResolver(t, s, `{}`, `{}`)

	pair, err := r.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if pair != types.MissingPair() {
		t.Errorf("Resolve(nil) = %+v, want MissingPair", pair)
	}
	if s.totalCalls() != 0 {
		t.Errorf("nil candidate list triggered %d external calls, want 0", s.totalCalls())
	}
}

func TestResolvePlaceboShortCircuits(t *testing.T) {
	s := newStubBackends()
	s.wikiQIDs["Aspirin"] = []string{"Q1"}
	r := newTestResolver(t, s, `{"Q1":"00945"}`, `{"Q1":"2244"}`)

	tests := [][]string{
		{"placebo"},
		{"Matching PLACEBO"},
		{"Aspirin", "oral placebo"},
	}
	for _, names := range tests {
		pair, err := r.Resolve(context.Background(), names)
		if err != nil {
			t.Fatal(err)
		}
		if !pair.IsPlacebo() {
			t.Errorf("Resolve(%v) = %+v, want PlaceboPair", names, pair)
		}
	}
	if s.totalCalls() != 0 {
		t.Errorf("placebo records triggered %d external calls, want 0", s.totalCalls())
	}
}

func TestResolveNameEmptyString(t *testing.T) {
	s := newStubBackends()
	r := newTestResolver(t, s, `{}`, `{}`)

	pair, err := r.ResolveName(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	want := types.IdentifierPair{DrugBankID: "", PubChemID: ""}
	if pair != want {
		t.Errorf(`ResolveName("") = %+v, want ("", "")`, pair)
	}
	if pair == types.MissingPair() {
		t.Error("empty-string result must be distinguishable from MissingPair")
	}
}

func TestResolveEarlyTermination(t *testing.T) {
	s := newStubBackends()
	// The first candidate resolves both identifiers; later candidates
	// must not be looked up at all.
	s.wikiQIDs["Aspirin"] = []string{"Q1"}
	s.wikiQIDs["ASA"] = []string{"Q1"}
	s.registryIDs["Aspirin"] = []string{"DB00945"}
	r := newTestResolver(t, s, `{"Q1":"00945"}`, `{"Q1":"2244"}`)

	pair, err := r.Resolve(context.Background(), []string{"Aspirin", "ASA", "acetylsalicylic acid"})
	if err != nil {
		t.Fatal(err)
	}
	if pair.DrugBankID != "DB00945" || pair.PubChemID != "CID2244" {
		t.Errorf("pair = %+v, want DB00945 / CID2244", pair)
	}
	if s.wikiCalls["ASA"] != 0 || s.registryCalls["ASA"] != 0 {
		t.Error("later candidate was looked up after both identifiers were found")
	}
	if s.wikiCalls["acetylsalicylic acid"] != 0 {
		t.Error("later candidate was looked up after both identifiers were found")
	}
}

func TestResolveAccumulatesAcrossCandidates(t *testing.T) {
	s := newStubBackends()
	// First candidate yields only a DrugBank ID, second only a PubChem ID.
	s.wikiQIDs["nameA"] = []string{"QA"}
	s.wikiQIDs["nameB"] = []string{"QB"}
	r := newTestResolver(t, s, `{"QA":"11111"}`, `{"QB":"22222"}`)

	pair, err := r.Resolve(context.Background(), []string{"nameA", "nameB"})
	if err != nil {
		t.Fatal(err)
	}
	if pair.DrugBankID != "DB11111" {
		t.Errorf("DrugBankID = %q, want DB11111 (first seen, not overwritten)", pair.DrugBankID)
	}
	if pair.PubChemID != "CID22222" {
		t.Errorf("PubChemID = %q, want CID22222 (accumulated from second candidate)", pair.PubChemID)
	}
}

func TestResolveRegistryOverridesDrugBankID(t *testing.T) {
	s := newStubBackends()
	s.wikiQIDs["drugX"] = []string{"Q1"}
	s.registryIDs["drugX"] = []string{"DB77777"}
	r := newTestResolver(t, s, `{"Q1":"00001"}`, `{"Q1":"123"}`)

	pair, err := r.Resolve(context.Background(), []string{"drugX"})
	if err != nil {
		t.Fatal(err)
	}
	if pair.DrugBankID != "DB77777" {
		t.Errorf("DrugBankID = %q, want registry override DB77777", pair.DrugBankID)
	}
	if pair.PubChemID != "CID123" {
		t.Errorf("PubChemID = %q, want CID123 (override never touches PubChem)", pair.PubChemID)
	}
}

func TestResolveAllMissing(t *testing.T) {
	s := newStubBackends()
	r := newTestResolver(t, s, `{}`, `{}`)

	pair, err := r.Resolve(context.Background(), []string{"unknown thing", "another unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if pair != types.MissingPair() {
		t.Errorf("pair = %+v, want MissingPair", pair)
	}
}

func TestResolveAspirinEndToEnd(t *testing.T) {
	s := newStubBackends()
	// Graph search returns a QID mapped to DB00945; the registry has no
	// override for either name.
	s.wikiQIDs["Aspirin"] = []string{"Q18216"}
	r := newTestResolver(t, s, `{"Q18216":"00945"}`, `{}`)

	pair, err := r.Resolve(context.Background(), []string{"Aspirin", "ASA"})
	if err != nil {
		t.Fatal(err)
	}
	if pair.DrugBankID != "DB00945" {
		t.Errorf("DrugBankID = %q, want DB00945", pair.DrugBankID)
	}
	if pair.PubChemID != types.Missing {
		t.Errorf("PubChemID = %q, want Missing", pair.PubChemID)
	}
}
