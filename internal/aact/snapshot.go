// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aact

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// snapshotHeader fixes the CSV column order for snapshot files.
var snapshotHeader = []string{
	"nct_id", "study_start_date", "completion_date", "enrollment",
	"enrollment_type", "number_of_arms", "number_of_groups", "why_stopped",
	"phase", "overall_status", "design_group_id", "group_type", "title",
	"intervention_name", "other_names", "intervention_description",
	"refs", "mesh_terms", "condition_names",
}

// WriteSnapshot writes rows as CSV with a header line.
func WriteSnapshot(w io.Writer, rows []SnapshotRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.NCTID, row.StartDate, row.CompletionDate, row.Enrollment,
			row.EnrollmentType, row.NumberOfArms, row.NumberOfGroups,
			row.WhyStopped, row.Phase, row.OverallStatus, row.DesignGroupID,
			row.GroupType, row.Title, row.Name, row.OtherNamesJSON,
			row.Description, row.RefsJSON, row.MeshTermsJSON, row.ConditionsJSON,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing snapshot row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSnapshotFile writes the snapshot CSV to path.
func WriteSnapshotFile(path string, rows []SnapshotRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if err := WriteSnapshot(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSnapshot parses a snapshot CSV produced by WriteSnapshot. The
// header line is validated so that a column reorder fails loudly instead
// of silently shifting fields.
func ReadSnapshot(r io.Reader) ([]SnapshotRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(snapshotHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	for i, want := range snapshotHeader {
		if header[i] != want {
			return nil, fmt.Errorf("snapshot column %d is %q, want %q", i, header[i], want)
		}
	}

	var rows []SnapshotRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot row: %w", err)
		}
		rows = append(rows, SnapshotRow{
			NCTID:          record[0],
			StartDate:      record[1],
			CompletionDate: record[2],
			Enrollment:     record[3],
			EnrollmentType: record[4],
			NumberOfArms:   record[5],
			NumberOfGroups: record[6],
			WhyStopped:     record[7],
			Phase:          record[8],
			OverallStatus:  record[9],
			DesignGroupID:  record[10],
			GroupType:      record[11],
			Title:          record[12],
			Name:           record[13],
			OtherNamesJSON: record[14],
			Description:    record[15],
			RefsJSON:       record[16],
			MeshTermsJSON:  record[17],
			ConditionsJSON: record[18],
		})
	}
	return rows, nil
}

// ReadSnapshotFile reads a snapshot CSV from path.
func ReadSnapshotFile(path string) ([]SnapshotRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}

// Record converts a snapshot row into an intervention record, decoding
// the JSON other-names aggregate.
func (r SnapshotRow) Record() (rec RecordRow, err error) {
	otherNames, err := decodeStringArray(r.OtherNamesJSON)
	if err != nil {
		return RecordRow{}, fmt.Errorf("row %s/%s other names: %w", r.NCTID, r.DesignGroupID, err)
	}
	rec = RecordRow{
		Snapshot:   r,
		OtherNames: otherNames,
	}
	return rec, nil
}

// RecordRow pairs a snapshot row with its decoded synonym list.
type RecordRow struct {
	Snapshot   SnapshotRow
	OtherNames []string
}

// AllNames returns the primary name followed by the synonyms.
func (r RecordRow) AllNames() []string {
	names := make([]string, 0, len(r.OtherNames)+1)
	names = append(names, r.Snapshot.Name)
	names = append(names, r.OtherNames...)
	return names
}
