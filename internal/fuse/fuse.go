// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fuse merges the per-source combination tables into the
// unified unnormalized combinations table and a human-readable web
// preview.
package fuse

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meshintel/drugcombs/pkg/types"
)

// Input and output filenames. The inputs are produced by the trials,
// patents and orangebook stages respectively.
const (
	TrialsInput     = "design_group_df.csv"
	PatentsInput    = "transformed_patents_drug.csv"
	OrangeBookInput = "orangebook_combs_df.csv"

	AllCombsFile   = "all_combs_unnormalized.csv"
	WebPreviewFile = "web_preview.csv"
)

// Source labels for the unified table.
const (
	SourceTrials     = "clinicaltrials.gov"
	SourcePatents    = "patents"
	SourceOrangeBook = "orangebook"
)

// table is a CSV indexed by column name.
type table struct {
	columns map[string]int
	rows    [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[name] = i
	}
	return &table{columns: columns, rows: records[1:]}, nil
}

func (t *table) get(row []string, column string) (string, error) {
	i, ok := t.columns[column]
	if !ok {
		return "", fmt.Errorf("missing column %q", column)
	}
	return row[i], nil
}

func decodeList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding list column: %w", err)
	}
	return out, nil
}

// ReadTrials loads the design-group table. Each row carries a single
// selected name; it is lifted into a one-element list so every source
// shares the list-valued shape.
func ReadTrials(path string) ([]types.Combination, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	combs := make([]types.Combination, 0, len(t.rows))
	for _, row := range t.rows {
		name, err := t.get(row, "selected_name")
		if err != nil {
			return nil, err
		}
		dbid, err := t.get(row, "drugbank_identifier")
		if err != nil {
			return nil, err
		}
		cid, err := t.get(row, "pubchem_identifier")
		if err != nil {
			return nil, err
		}
		nctID, err := t.get(row, "nct_id")
		if err != nil {
			return nil, err
		}
		combs = append(combs, types.Combination{
			Drugs:       []string{name},
			DrugBankIDs: []string{dbid},
			PubChemIDs:  []string{cid},
			SourceID:    nctID,
			Source:      SourceTrials,
		})
	}
	return combs, nil
}

// readListTable loads a table whose drug and identifier columns are
// JSON-encoded lists.
func readListTable(path, drugsCol, dbidCol, cidCol string, sourceID func(t *table, row []string) (string, error), source string) ([]types.Combination, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	combs := make([]types.Combination, 0, len(t.rows))
	for i, row := range t.rows {
		drugsRaw, err := t.get(row, drugsCol)
		if err != nil {
			return nil, err
		}
		dbidsRaw, err := t.get(row, dbidCol)
		if err != nil {
			return nil, err
		}
		cidsRaw, err := t.get(row, cidCol)
		if err != nil {
			return nil, err
		}
		drugs, err := decodeList(drugsRaw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		dbids, err := decodeList(dbidsRaw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		cids, err := decodeList(cidsRaw)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}
		id, err := sourceID(t, row)
		if err != nil {
			return nil, err
		}
		combs = append(combs, types.Combination{
			Drugs:       drugs,
			DrugBankIDs: dbids,
			PubChemIDs:  cids,
			SourceID:    id,
			Source:      source,
		})
	}
	return combs, nil
}

// ReadPatents loads the transformed patents combination table.
func ReadPatents(path string) ([]types.Combination, error) {
	return readListTable(path, "drugs_names", "drugbank_identifiers", "pubchem_identifiers",
		func(t *table, row []string) (string, error) { return t.get(row, "Patent ID") },
		SourcePatents)
}

// ReadOrangeBook loads the orangebook combination table. Orange Book
// rows have no per-row source id.
func ReadOrangeBook(path string) ([]types.Combination, error) {
	return readListTable(path, "drugs_names", "drugbank_ids", "pubchem_ids",
		func(*table, []string) (string, error) { return "N/A", nil },
		SourceOrangeBook)
}

// Fuse reads the three source tables from inputDir and concatenates
// them, trials first.
func Fuse(inputDir string) ([]types.Combination, error) {
	trials, err := ReadTrials(filepath.Join(inputDir, TrialsInput))
	if err != nil {
		return nil, err
	}
	patents, err := ReadPatents(filepath.Join(inputDir, PatentsInput))
	if err != nil {
		return nil, err
	}
	orangeBook, err := ReadOrangeBook(filepath.Join(inputDir, OrangeBookInput))
	if err != nil {
		return nil, err
	}

	all := make([]types.Combination, 0, len(trials)+len(patents)+len(orangeBook))
	all = append(all, trials...)
	all = append(all, patents...)
	all = append(all, orangeBook...)
	return all, nil
}

var allCombsHeader = []string{
	"drugs", "drugbank_identifiers", "pubchem_identifiers", "source_id", "source",
}

func encodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

// WriteAll writes the unified combinations table.
func WriteAll(w io.Writer, combs []types.Combination) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(allCombsHeader); err != nil {
		return fmt.Errorf("writing combined header: %w", err)
	}
	for _, comb := range combs {
		record := []string{
			encodeList(comb.Drugs), encodeList(comb.DrugBankIDs),
			encodeList(comb.PubChemIDs), comb.SourceID, comb.Source,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing combined row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAllFile writes the unified combinations table to path.
func WriteAllFile(path string, combs []types.Combination) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating combined file: %w", err)
	}
	if err := WriteAll(f, combs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
