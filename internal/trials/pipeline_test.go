// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/meshintel/drugcombs/internal/aact"
	"github.com/meshintel/drugcombs/internal/link"
	"github.com/meshintel/drugcombs/pkg/types"
)

// stubLinker links by lookup table. Names mapped to "AMBIG" report
// ambiguity; unknown names link to nothing.
type stubLinker struct {
	canonical map[string]string
}

func (s *stubLinker) Link(name string) (string, error) {
	got, ok := s.canonical[name]
	if !ok {
		return "", nil
	}
	if got == "AMBIG" {
		return "", fmt.Errorf("linking %q: %w", name, link.ErrAmbiguous)
	}
	return got, nil
}

// stubResolver resolves by the first name in the list.
type stubResolver struct {
	pairs map[string]types.IdentifierPair
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, names []string) (types.IdentifierPair, error) {
	s.calls++
	if len(names) == 1 && names[0] == "placebo" {
		return types.PlaceboPair(), nil
	}
	for _, name := range names {
		if pair, ok := s.pairs[name]; ok {
			return pair, nil
		}
	}
	return types.MissingPair(), nil
}

func testPipeline(linker *stubLinker, resolver *stubResolver) *Pipeline {
	return &Pipeline{
		Linker:   linker,
		Resolver: resolver,
		Workers:  2,
		Progress: io.Discard,
	}
}

func TestRunResolvesLinkedRows(t *testing.T) {
	snapshot := []aact.SnapshotRow{
		{
			NCTID:          "NCT1",
			DesignGroupID:  "10",
			GroupType:      "Experimental",
			Title:          "Arm A",
			Name:           "Aspirin 100mg",
			OtherNamesJSON: `["ASA"]`,
		},
	}
	linker := &stubLinker{canonical: map[string]string{"Aspirin": "aspirin"}}
	resolver := &stubResolver{pairs: map[string]types.IdentifierPair{
		"Aspirin": {DrugBankID: "DB00945", PubChemID: "CID2244"},
	}}

	result, err := testPipeline(linker, resolver).Run(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Rows))
	}
	row := result.Rows[0]
	if row.SelectedName != "aspirin" {
		t.Errorf("selected name = %q, want %q", row.SelectedName, "aspirin")
	}
	if row.Identifiers.DrugBankID != "DB00945" {
		t.Errorf("drugbank id = %q", row.Identifiers.DrugBankID)
	}
	if result.Processed != 1 || result.Dropped != 0 {
		t.Errorf("stats = %d processed, %d dropped", result.Processed, result.Dropped)
	}
}

func TestRunCollapsesPlaceboArm(t *testing.T) {
	snapshot := []aact.SnapshotRow{
		{
			NCTID:         "NCT1",
			DesignGroupID: "11",
			GroupType:     "Placebo Comparator",
			Name:          "Matching placebo tablet",
		},
	}
	resolver := &stubResolver{}
	result, err := testPipeline(&stubLinker{}, resolver).Run(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Rows))
	}
	row := result.Rows[0]
	if row.SelectedName != "placebo" {
		t.Errorf("selected name = %q, want placebo", row.SelectedName)
	}
	if len(row.CleanedNames) != 1 || row.CleanedNames[0] != "placebo" {
		t.Errorf("cleaned names = %v, want [placebo]", row.CleanedNames)
	}
	if !row.Identifiers.IsPlacebo() {
		t.Errorf("identifiers = %+v, want placebo pair", row.Identifiers)
	}
}

func TestRunAmbiguityPoisonsDesignGroup(t *testing.T) {
	snapshot := []aact.SnapshotRow{
		{NCTID: "NCT1", DesignGroupID: "12", Name: "Goodrug"},
		{NCTID: "NCT1", DesignGroupID: "12", Name: "Drug A and Drug B"},
		{NCTID: "NCT1", DesignGroupID: "13", Name: "Goodrug"},
	}
	linker := &stubLinker{canonical: map[string]string{
		"Goodrug":           "goodrug",
		"Drug A and Drug B": "AMBIG",
	}}
	resolver := &stubResolver{pairs: map[string]types.IdentifierPair{
		"Goodrug": {DrugBankID: "DB1", PubChemID: "CID1"},
	}}

	result, err := testPipeline(linker, resolver).Run(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	// Only the row in the clean design group survives.
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(result.Rows), result.Rows)
	}
	if result.Rows[0].DesignGroupID != "13" {
		t.Errorf("surviving group = %q, want 13", result.Rows[0].DesignGroupID)
	}
	if len(result.Excluded) != 2 {
		t.Fatalf("got %d excluded rows, want 2", len(result.Excluded))
	}
	if result.Flagged != 2 || result.Dropped != 2 {
		t.Errorf("stats = %d flagged, %d dropped", result.Flagged, result.Dropped)
	}
	// The resolver never sees the poisoned group.
	if resolver.calls != 1 {
		t.Errorf("resolver called %d times, want 1", resolver.calls)
	}
}

func TestRunExcludesUnlinkableRow(t *testing.T) {
	snapshot := []aact.SnapshotRow{
		{NCTID: "NCT2", DesignGroupID: "20", Name: "Mystery compound"},
	}
	result, err := testPipeline(&stubLinker{}, &stubResolver{}).Run(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(result.Rows))
	}
	if len(result.Excluded) != 1 {
		t.Fatalf("got %d excluded rows, want 1", len(result.Excluded))
	}
	if result.Excluded[0].Reason != "no linkable entity in any name" {
		t.Errorf("reason = %q", result.Excluded[0].Reason)
	}
}

func TestRunExcludesMalformedOtherNames(t *testing.T) {
	snapshot := []aact.SnapshotRow{
		{NCTID: "NCT3", DesignGroupID: "30", Name: "Drug", OtherNamesJSON: `{"not":`},
	}
	result, err := testPipeline(&stubLinker{}, &stubResolver{}).Run(context.Background(), snapshot)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Rows) != 0 || len(result.Excluded) != 1 {
		t.Fatalf("rows = %d, excluded = %d", len(result.Rows), len(result.Excluded))
	}
}

func TestDecodeNamesRoundTrip(t *testing.T) {
	names := []string{"aspirin", "caffeine"}
	got, err := DecodeNames(EncodeNames(names))
	if err != nil {
		t.Fatalf("DecodeNames() error: %v", err)
	}
	if len(got) != 2 || got[0] != "aspirin" || got[1] != "caffeine" {
		t.Errorf("round trip = %v, want %v", got, names)
	}
}
