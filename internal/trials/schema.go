// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/drugcombs/internal/aact"
)

// Table filenames written by WriteTables.
const (
	DesignGroupsFile = "design_group_df.csv"
	TrialsFile       = "trials_df.csv"
	ConditionsFile   = "conditions_df.csv"
	MeshTermsFile    = "mesh_terms_df.csv"
	ReferencesFile   = "references_df.csv"
	ErrorsFile       = "errors.csv"
	ReportFile       = "report.yaml"
)

// WriteTables extracts the normalized tables from the snapshot and the
// pipeline result and writes them as CSVs under dir, plus the excluded
// rows side file and a yaml run report.
func WriteTables(dir string, snapshot []aact.SnapshotRow, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeDesignGroups(filepath.Join(dir, DesignGroupsFile), result.Rows); err != nil {
		return err
	}
	if err := writeTrials(filepath.Join(dir, TrialsFile), snapshot); err != nil {
		return err
	}
	if err := writeTermTable(filepath.Join(dir, ConditionsFile),
		[]string{"nct_id", "condition", "condition_downcase"}, snapshot,
		func(r aact.SnapshotRow) string { return r.ConditionsJSON }); err != nil {
		return err
	}
	if err := writeTermTable(filepath.Join(dir, MeshTermsFile),
		[]string{"nct_id", "mesh_term", "mesh_term_downcase"}, snapshot,
		func(r aact.SnapshotRow) string { return r.MeshTermsJSON }); err != nil {
		return err
	}
	if err := writeReferences(filepath.Join(dir, ReferencesFile), snapshot); err != nil {
		return err
	}
	if err := WriteExcluded(filepath.Join(dir, ErrorsFile), result.Excluded); err != nil {
		return err
	}
	return writeReport(filepath.Join(dir, ReportFile), result)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing %s header: %w", path, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("writing %s row: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeDesignGroups(path string, rows []GroupRow) error {
	header := []string{
		"nct_id", "design_group_id", "group_type", "title",
		"selected_name", "cleaned_names",
		"drugbank_identifier", "pubchem_identifier",
	}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.NCTID, row.DesignGroupID, row.GroupType, row.Title,
			row.SelectedName, EncodeNames(row.CleanedNames),
			row.Identifiers.DrugBankID, row.Identifiers.PubChemID,
		})
	}
	return writeCSV(path, header, records)
}

func writeTrials(path string, snapshot []aact.SnapshotRow) error {
	header := []string{
		"nct_id", "study_start_date", "completion_date", "enrollment",
		"enrollment_type", "number_of_arms", "number_of_groups",
		"why_stopped", "phase", "overall_status",
	}
	seen := make(map[string]struct{})
	var records [][]string
	for _, r := range snapshot {
		if _, dup := seen[r.NCTID]; dup {
			continue
		}
		seen[r.NCTID] = struct{}{}
		records = append(records, []string{
			r.NCTID, r.StartDate, r.CompletionDate, r.Enrollment,
			r.EnrollmentType, r.NumberOfArms, r.NumberOfGroups,
			r.WhyStopped, r.Phase, r.OverallStatus,
		})
	}
	return writeCSV(path, header, records)
}

// writeTermTable extracts a (nct_id, term, downcased term) table from a
// JSON-aggregated column, deduplicating per trial.
func writeTermTable(path string, header []string, snapshot []aact.SnapshotRow, column func(aact.SnapshotRow) string) error {
	seen := make(map[string]struct{})
	var records [][]string
	for _, r := range snapshot {
		terms, err := aact.DecodeStringArray(column(r))
		if err != nil {
			// A malformed aggregate loses this trial's terms, not the run.
			continue
		}
		for _, term := range terms {
			key := r.NCTID + "\x00" + term
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			records = append(records, []string{r.NCTID, term, strings.ToLower(term)})
		}
	}
	return writeCSV(path, header, records)
}

func writeReferences(path string, snapshot []aact.SnapshotRow) error {
	header := []string{"nct_id", "reference_type", "reference"}
	seen := make(map[string]struct{})
	var records [][]string
	for _, r := range snapshot {
		if _, dup := seen[r.NCTID]; dup {
			continue
		}
		seen[r.NCTID] = struct{}{}
		refs, err := aact.DecodeRefs(r.RefsJSON)
		if err != nil {
			continue
		}
		for _, ref := range refs {
			records = append(records, []string{r.NCTID, ref.Type, ref.Citation})
		}
	}
	return writeCSV(path, header, records)
}

// WriteExcluded persists the ambiguous/unlinkable rows for manual
// review. They are never silently dropped.
func WriteExcluded(path string, excluded []ExcludedRow) error {
	header := []string{"nct_id", "design_group_id", "name", "reason"}
	records := make([][]string, 0, len(excluded))
	for _, row := range excluded {
		records = append(records, []string{row.NCTID, row.DesignGroupID, row.Name, row.Reason})
	}
	return writeCSV(path, header, records)
}

func writeReport(path string, result *Result) error {
	report := struct {
		Processed int `yaml:"processed"`
		Flagged   int `yaml:"flagged"`
		Dropped   int `yaml:"dropped"`
	}{result.Processed, result.Flagged, result.Dropped}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
