// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fuse

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/meshintel/drugcombs/pkg/types"
)

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeInput(t, dir, TrialsInput,
		"nct_id,design_group_id,group_type,title,selected_name,cleaned_names,drugbank_identifier,pubchem_identifier\n"+
			"NCT1,10,Experimental,Arm A,aspirin,\"[\"\"Aspirin\"\"]\",DB00945,CID2244\n")
	writeInput(t, dir, PatentsInput,
		"Patent ID,drugs_names,drugbank_identifiers,pubchem_identifiers\n"+
			"US123,\"[\"\"aspirin\"\",\"\"caffeine\"\"]\",\"[\"\"DB00945\"\",\"\"DB00201\"\"]\",\"[\"\"CID2244\"\",\"\"CID2519\"\"]\"\n")
	writeInput(t, dir, OrangeBookInput,
		"trade_name,drugs_names,drugbank_ids,pubchem_ids\n"+
			"COMBODRUG,\"[\"\"ASPIRIN\"\",\"\"CAFFEINE\"\"]\",\"[\"\"DB00945\"\",\"\"-1\"\"]\",\"[\"\"CID2244\"\",\"\"-1\"\"]\"\n")
	return dir
}

func TestFuseHarmonizesSources(t *testing.T) {
	combs, err := Fuse(fixtureDir(t))
	if err != nil {
		t.Fatalf("Fuse() error: %v", err)
	}
	if len(combs) != 3 {
		t.Fatalf("got %d combinations, want 3", len(combs))
	}

	trial := combs[0]
	if trial.Source != SourceTrials || trial.SourceID != "NCT1" {
		t.Errorf("trial row = %+v", trial)
	}
	if len(trial.Drugs) != 1 || trial.Drugs[0] != "aspirin" {
		t.Errorf("trial drugs = %v", trial.Drugs)
	}
	if trial.DrugBankIDs[0] != "DB00945" {
		t.Errorf("trial drugbank ids = %v", trial.DrugBankIDs)
	}

	patent := combs[1]
	if patent.Source != SourcePatents || patent.SourceID != "US123" {
		t.Errorf("patent row = %+v", patent)
	}
	if len(patent.Drugs) != 2 || patent.PubChemIDs[1] != "CID2519" {
		t.Errorf("patent row = %+v", patent)
	}

	ob := combs[2]
	if ob.Source != SourceOrangeBook || ob.SourceID != "N/A" {
		t.Errorf("orangebook row = %+v", ob)
	}
	if ob.DrugBankIDs[1] != types.Missing {
		t.Errorf("orangebook drugbank ids = %v", ob.DrugBankIDs)
	}
}

func TestFuseMissingInputFails(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, TrialsInput,
		"nct_id,design_group_id,group_type,title,selected_name,cleaned_names,drugbank_identifier,pubchem_identifier\n")
	if _, err := Fuse(dir); err == nil {
		t.Error("Fuse() succeeded without the patents input")
	}
}

func TestWriteAllRoundTrip(t *testing.T) {
	combs, err := Fuse(fixtureDir(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteAll(&buf, combs); err != nil {
		t.Fatalf("WriteAll() error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows", len(records))
	}
	if records[1][0] != `["aspirin"]` || records[1][4] != SourceTrials {
		t.Errorf("trial record = %v", records[1])
	}
	if records[3][1] != `["DB00945","-1"]` {
		t.Errorf("orangebook identifiers = %q", records[3][1])
	}
}

func TestWriteWebPreview(t *testing.T) {
	names := map[string]string{"DB00945": "Aspirin", "DB00201": "Caffeine"}
	combs := []types.Combination{
		{
			Drugs:       []string{"acetylsalicylic acid", "unknown compound"},
			DrugBankIDs: []string{"DB00945", "-1"},
			PubChemIDs:  []string{"CID2244", "-1"},
			SourceID:    "NCT1",
			Source:      SourceTrials,
		},
		{
			Drugs:       []string{"acetylsalicylic acid", "unknown compound"},
			DrugBankIDs: []string{"DB00945", "-1"},
			PubChemIDs:  []string{"CID2244", "-1"},
			SourceID:    "NCT1",
			Source:      SourceTrials,
		},
	}
	var buf bytes.Buffer
	if err := WriteWebPreview(&buf, combs, names); err != nil {
		t.Fatalf("WriteWebPreview() error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// Exact duplicates collapse to one row.
	if len(records) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(records))
	}
	row := records[1]
	if row[0] != "Aspirin,unknown compound" {
		t.Errorf("display names = %q", row[0])
	}
	if row[1] != "DB00945;NA" || row[2] != "CID2244;NA" {
		t.Errorf("identifiers = %q / %q", row[1], row[2])
	}
}

func TestLoadDrugNames(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "names.csv", "drugBank_id,Drug name\nDB00945,Aspirin\nDB00201,Caffeine\n")
	names, err := LoadDrugNames(filepath.Join(dir, "names.csv"))
	if err != nil {
		t.Fatalf("LoadDrugNames() error: %v", err)
	}
	if len(names) != 2 || names["DB00945"] != "Aspirin" {
		t.Errorf("names = %v", names)
	}
}
