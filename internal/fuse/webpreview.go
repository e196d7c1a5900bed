// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fuse

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meshintel/drugcombs/pkg/types"
)

var webPreviewHeader = []string{
	"drugs", "drugbank_identifiers", "pubchem_identifiers", "source_id", "source",
}

// LoadDrugNames reads the DrugBank display-name table, a CSV with
// drugBank_id and "Drug name" columns.
func LoadDrugNames(path string) (map[string]string, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(t.rows))
	for _, row := range t.rows {
		id, err := t.get(row, "drugBank_id")
		if err != nil {
			return nil, err
		}
		name, err := t.get(row, "Drug name")
		if err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, nil
}

// displayName prefers the DrugBank display name; rows with no mapped
// identifier fall back to the source's own drug name.
func displayName(dbid, fallback string, names map[string]string) string {
	if dbid != types.Missing {
		if name, ok := names[dbid]; ok {
			return name
		}
	}
	return fallback
}

// webIdentifiers renders an identifier list for display, replacing the
// missing marker with "NA".
func webIdentifiers(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id == types.Missing {
			out[i] = "NA"
		} else {
			out[i] = id
		}
	}
	return strings.Join(out, ";")
}

// WriteWebPreview writes the display table: drug names resolved via the
// DrugBank name map, identifiers ";"-joined with missing shown as NA,
// exact duplicate rows collapsed.
func WriteWebPreview(w io.Writer, combs []types.Combination, names map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(webPreviewHeader); err != nil {
		return fmt.Errorf("writing preview header: %w", err)
	}
	seen := make(map[string]struct{})
	for _, comb := range combs {
		display := make([]string, len(comb.DrugBankIDs))
		for i, dbid := range comb.DrugBankIDs {
			fallback := ""
			if i < len(comb.Drugs) {
				fallback = comb.Drugs[i]
			}
			display[i] = displayName(dbid, fallback, names)
		}
		record := []string{
			strings.Join(display, ","),
			webIdentifiers(comb.DrugBankIDs),
			webIdentifiers(comb.PubChemIDs),
			comb.SourceID, comb.Source,
		}
		key := strings.Join(record, "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing preview row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWebPreviewFile writes the display table to path.
func WriteWebPreviewFile(path string, combs []types.Combination, names map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating preview file: %w", err)
	}
	if err := WriteWebPreview(f, combs, names); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
