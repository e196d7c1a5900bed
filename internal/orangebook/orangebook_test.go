// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orangebook

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/meshintel/drugcombs/pkg/types"
)

const productsSample = `Ingredient~DF;Route~Trade_Name~Applicant~Strength~Appl_Type~Appl_No~Product_No~TE_Code~Approval_Date~RLD~RS~Type~Applicant_Full_Name
ASPIRIN~TABLET;ORAL~PLAINDRUG~AB~100MG~N~000001~001~AB~Jan 1, 1990~No~No~RX~ACME PHARMA
ASPIRIN; CAFFEINE~TABLET;ORAL~COMBODRUG~AB~100MG;30MG~N~000002~001~AB~Feb 2, 1995~Yes~Yes~RX~ACME PHARMA
ASPIRIN; CAFFEINE~CAPSULE;ORAL~COMBODRUG XR~AB~200MG;60MG~N~000003~001~AB~Mar 3, 2000~No~No~RX~ACME PHARMA
AMLODIPINE; BENAZEPRIL~CAPSULE;ORAL~LOTREL~AB~5MG;10MG~N~000004~001~AB~Apr 4, 2001~Yes~Yes~RX~NOVARTIS
`

const patentsSample = `Appl_Type~Appl_No~Product_No~Patent_No~Patent_Expire_Date_Text~Drug_Substance_Flag~Drug_Product_Flag~Patent_Use_Code~Delist_Flag~Submission_Date
N~000002~001~5123456~Dec 31, 2030~Y~~U-100~~Jun 5, 2015
N~000004~001~6789012~Jan 15, 2028~~Y~U-200~~Jul 6, 2016
`

func parseSample(t *testing.T) []Combination {
	t.Helper()
	patents, err := ParsePatents(strings.NewReader(patentsSample))
	if err != nil {
		t.Fatalf("ParsePatents() error: %v", err)
	}
	combs, err := ParseProducts(strings.NewReader(productsSample), patents)
	if err != nil {
		t.Fatalf("ParseProducts() error: %v", err)
	}
	return combs
}

func TestParseProductsKeepsOnlyCombinations(t *testing.T) {
	combs := parseSample(t)
	// The single-ingredient product and the duplicate ingredient set are
	// dropped; two distinct combinations remain.
	if len(combs) != 2 {
		t.Fatalf("got %d combinations, want 2: %+v", len(combs), combs)
	}
	first := combs[0]
	if len(first.Drugs) != 2 || first.Drugs[0] != "ASPIRIN" || first.Drugs[1] != "CAFFEINE" {
		t.Errorf("drugs = %v", first.Drugs)
	}
	if first.TradeName != "COMBODRUG" || first.ApplNo != "000002" || first.Applicant != "ACME PHARMA" {
		t.Errorf("product fields = %+v", first)
	}
}

func TestParseProductsJoinsPatents(t *testing.T) {
	combs := parseSample(t)
	if combs[0].Patent == nil {
		t.Fatal("combination 000002 has no patent, want 5123456")
	}
	if combs[0].Patent.PatentNo != "5123456" || combs[0].Patent.ExpireDate != "Dec 31, 2030" {
		t.Errorf("patent = %+v", combs[0].Patent)
	}
	if combs[1].Patent == nil || combs[1].Patent.PatentNo != "6789012" {
		t.Errorf("combination 000004 patent = %+v", combs[1].Patent)
	}
}

func TestParseProductsRejectsShortLine(t *testing.T) {
	bad := "header\nA; B~TABLET~X\n"
	if _, err := ParseProducts(strings.NewReader(bad), nil); err == nil {
		t.Error("ParseProducts() accepted a short line")
	}
}

type stubNameResolver struct {
	pairs map[string]types.IdentifierPair
}

func (s *stubNameResolver) ResolveName(ctx context.Context, name string) (types.IdentifierPair, error) {
	if pair, ok := s.pairs[name]; ok {
		return pair, nil
	}
	return types.MissingPair(), nil
}

func TestResolveAlignsIdentifiers(t *testing.T) {
	resolver := &stubNameResolver{pairs: map[string]types.IdentifierPair{
		"ASPIRIN":  {DrugBankID: "DB00945", PubChemID: "CID2244"},
		"CAFFEINE": {DrugBankID: "DB00201", PubChemID: "CID2519"},
	}}
	combs, err := Resolve(context.Background(), resolver, parseSample(t), 2, io.Discard)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	first := combs[0]
	if len(first.DrugBankIDs) != 2 || first.DrugBankIDs[0] != "DB00945" || first.DrugBankIDs[1] != "DB00201" {
		t.Errorf("drugbank ids = %v", first.DrugBankIDs)
	}
	if first.PubChemIDs[1] != "CID2519" {
		t.Errorf("pubchem ids = %v", first.PubChemIDs)
	}
	// Unknown ingredients degrade to missing, keeping alignment.
	second := combs[1]
	if second.DrugBankIDs[0] != types.Missing || second.PubChemIDs[1] != types.Missing {
		t.Errorf("unmapped ids = %v / %v", second.DrugBankIDs, second.PubChemIDs)
	}
}

func TestWriteCombs(t *testing.T) {
	resolver := &stubNameResolver{pairs: map[string]types.IdentifierPair{
		"ASPIRIN": {DrugBankID: "DB00945", PubChemID: "CID2244"},
	}}
	combs, err := Resolve(context.Background(), resolver, parseSample(t), 1, io.Discard)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCombs(&buf, combs); err != nil {
		t.Fatalf("WriteCombs() error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(records))
	}
	row := records[1]
	if row[0] != "COMBODRUG" || row[10] != "5123456" {
		t.Errorf("row = %v", row)
	}
	if row[13] != `["ASPIRIN","CAFFEINE"]` {
		t.Errorf("drugs column = %q", row[13])
	}
	if row[14] != `["DB00945","-1"]` {
		t.Errorf("drugbank column = %q", row[14])
	}
}
