// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials preprocesses clinical-trials snapshot rows into the
// drug-combination tables: name cleanup, placebo collapse, ontology
// linking, identifier resolution and schema extraction.
package trials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/meshintel/drugcombs/internal/aact"
	"github.com/meshintel/drugcombs/internal/bulk"
	"github.com/meshintel/drugcombs/internal/link"
	"github.com/meshintel/drugcombs/internal/normalize"
	"github.com/meshintel/drugcombs/pkg/types"
)

// Linker maps one intervention name to a canonical entity name.
// *link.Linker satisfies it.
type Linker interface {
	Link(name string) (string, error)
}

// Resolver maps a cleaned name list to an identifier pair.
// *resolve.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, names []string) (types.IdentifierPair, error)
}

// Pipeline wires the per-record stages. The linker is not safe for
// parallel use against a single recognizer model, so linking runs
// sequentially; identifier resolution, which is network-bound, fans out.
type Pipeline struct {
	Linker   Linker
	Resolver Resolver
	Workers  int
	Progress io.Writer
}

// GroupRow is one preprocessed intervention row.
type GroupRow struct {
	NCTID         string
	DesignGroupID string
	GroupType     string
	Title         string
	RawNames      []string
	CleanedNames  []string
	SelectedName  string
	Identifiers   types.IdentifierPair
}

// ExcludedRow records an intervention dropped for entity ambiguity or
// for linking to nothing, kept for manual review.
type ExcludedRow struct {
	NCTID         string
	DesignGroupID string
	Name          string
	Reason        string
}

// Result is the pipeline outcome plus its run statistics.
type Result struct {
	Rows     []GroupRow
	Excluded []ExcludedRow

	Processed int `yaml:"processed"`
	Flagged   int `yaml:"flagged"`
	Dropped   int `yaml:"dropped"`
}

// Run executes the preprocessing stages over a snapshot. Per-record
// failures never abort the batch; rows are either processed or moved to
// the excluded list with a reason.
func (p *Pipeline) Run(ctx context.Context, snapshot []aact.SnapshotRow) (*Result, error) {
	result := &Result{}

	type linked struct {
		row      GroupRow
		excluded *ExcludedRow
	}

	// Flatten, clean, collapse placebos and link sequentially: the
	// recognizer is the only stage that is not trivially parallel.
	prepared := make([]linked, 0, len(snapshot))
	for _, raw := range snapshot {
		rec, err := raw.Record()
		if err != nil {
			prepared = append(prepared, linked{excluded: &ExcludedRow{
				NCTID:         raw.NCTID,
				DesignGroupID: raw.DesignGroupID,
				Name:          raw.Name,
				Reason:        fmt.Sprintf("malformed other names: %v", err),
			}})
			continue
		}

		names := rec.AllNames()
		cleaned := normalize.CleanAll(names)
		if normalize.ContainsPlacebo(cleaned) {
			cleaned = []string{"placebo"}
		}

		row := GroupRow{
			NCTID:         raw.NCTID,
			DesignGroupID: raw.DesignGroupID,
			GroupType:     raw.GroupType,
			Title:         raw.Title,
			RawNames:      names,
			CleanedNames:  cleaned,
		}

		selected, excluded := p.selectName(row, cleaned)
		if excluded != nil {
			prepared = append(prepared, linked{excluded: excluded})
			continue
		}
		row.SelectedName = selected
		prepared = append(prepared, linked{row: row})
	}

	// Exclusion is per design group: one ambiguous intervention poisons
	// the whole arm, since a partial combination is worse than none.
	poisoned := make(map[string]struct{})
	for _, l := range prepared {
		if l.excluded != nil {
			poisoned[l.excluded.DesignGroupID] = struct{}{}
		}
	}

	var kept []GroupRow
	for _, l := range prepared {
		if l.excluded != nil {
			result.Excluded = append(result.Excluded, *l.excluded)
			continue
		}
		if _, bad := poisoned[l.row.DesignGroupID]; bad {
			result.Excluded = append(result.Excluded, ExcludedRow{
				NCTID:         l.row.NCTID,
				DesignGroupID: l.row.DesignGroupID,
				Name:          first(l.row.RawNames),
				Reason:        "design group excluded for a sibling's ambiguity",
			})
			continue
		}
		kept = append(kept, l.row)
	}

	// Identifier resolution is network-bound; fan out.
	progress := p.Progress
	if progress == nil {
		progress = io.Discard
	}
	pairs, err := bulk.MapWithProgress(ctx, kept, p.Workers, progress,
		func(ctx context.Context, row GroupRow) (types.IdentifierPair, error) {
			return p.Resolver.Resolve(ctx, row.CleanedNames)
		})
	if err != nil {
		return nil, fmt.Errorf("resolving identifiers: %w", err)
	}
	for i := range kept {
		kept[i].Identifiers = pairs[i]
	}

	result.Rows = kept
	result.Processed = len(kept)
	result.Flagged = len(result.Excluded)
	result.Dropped = len(snapshot) - len(kept)
	return result, nil
}

// selectName links the cleaned names and picks the canonical name of the
// first linkable one. Placebo arms keep their marker verbatim. A row
// whose names are all unlinkable, or any ambiguous name, excludes the row.
func (p *Pipeline) selectName(row GroupRow, cleaned []string) (string, *ExcludedRow) {
	if len(cleaned) == 1 && cleaned[0] == "placebo" {
		return "placebo", nil
	}

	for _, name := range cleaned {
		if name == "" {
			continue
		}
		canonical, err := p.Linker.Link(name)
		if errors.Is(err, link.ErrAmbiguous) {
			return "", &ExcludedRow{
				NCTID:         row.NCTID,
				DesignGroupID: row.DesignGroupID,
				Name:          name,
				Reason:        "contained more than one entity",
			}
		}
		if err != nil {
			return "", &ExcludedRow{
				NCTID:         row.NCTID,
				DesignGroupID: row.DesignGroupID,
				Name:          name,
				Reason:        fmt.Sprintf("linking failed: %v", err),
			}
		}
		if canonical != "" {
			return canonical, nil
		}
	}
	return "", &ExcludedRow{
		NCTID:         row.NCTID,
		DesignGroupID: row.DesignGroupID,
		Name:          first(row.RawNames),
		Reason:        "no linkable entity in any name",
	}
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// EncodeNames renders a name list as JSON for CSV embedding. The
// serialized form is decoded with DecodeNames, never re-evaluated as
// code.
func EncodeNames(names []string) string {
	data, _ := json.Marshal(names)
	return string(data)
}

// DecodeNames parses a name list serialized by EncodeNames.
func DecodeNames(s string) ([]string, error) {
	return aact.DecodeStringArray(s)
}
