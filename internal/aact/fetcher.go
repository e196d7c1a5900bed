// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aact pulls drug-combination candidate rows from the AACT
// clinical-trials Postgres mirror. Only design groups with more than one
// drug intervention are fetched; single-drug arms cannot form a
// combination.
package aact

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meshintel/drugcombs/pkg/types"
)

// snapshotQuery collects drug interventions of multi-intervention design
// groups along with their synonym names, trial metadata, conditions,
// MeSH terms and references.
const snapshotQuery = `
SELECT relevant_studies.*,
       collected_conditions.mesh_terms,
       collected_conditions.condition_names
FROM (SELECT studies.nct_id                          nct_id,
             studies.start_date                      study_start_date,
             studies.completion_date                 completion_date,
             studies.enrollment                      enrollment,
             studies.enrollment_type                 enrollment_type,
             studies.number_of_arms                  number_of_arms,
             studies.number_of_groups                number_of_groups,
             studies.why_stopped                     why_stopped,
             studies.phase                           phase,
             studies.overall_status                  overall_status,
             dg.id                                   design_group_id,
             dg.group_type,
             dg.title,
             i.name                                  intervention_name,
             CASE
                 WHEN ions.intervention_other_names IS NULL THEN json_build_array()
                 ELSE ions.intervention_other_names END other_names,
             i.description                           intervention_description,
             collected_refs.refs                     refs
      FROM studies
               LEFT JOIN design_groups dg ON studies.nct_id = dg.nct_id
               LEFT JOIN design_group_interventions dgi ON dg.id = dgi.design_group_id
               LEFT JOIN interventions i ON dgi.intervention_id = i.id
               LEFT JOIN (SELECT json_agg(ion.name) intervention_other_names, intervention_id
                          FROM intervention_other_names ion
                          GROUP BY intervention_id) ions ON i.id = ions.intervention_id
               LEFT JOIN (SELECT nct_id,
                                 json_agg(json_build_array(study_references.reference_type,
                                                           study_references.citation)) refs
                          FROM study_references
                          GROUP BY nct_id) collected_refs ON collected_refs.nct_id = studies.nct_id
      WHERE intervention_type = 'Drug'
        AND dg.id IN (SELECT dg.id
                      FROM studies
                               LEFT JOIN design_groups dg ON studies.nct_id = dg.nct_id
                               LEFT JOIN design_group_interventions dgi ON dg.id = dgi.design_group_id
                               LEFT JOIN interventions i ON dgi.intervention_id = i.id
                      WHERE intervention_type = 'Drug'
                      GROUP BY studies.nct_id, dg.id
                      HAVING COUNT(*) > 1)) relevant_studies
         LEFT OUTER JOIN (SELECT bc_collected.nct_id nct_id,
                                 mesh_terms,
                                 condition_names
                          FROM (SELECT bc.nct_id              nct_id,
                                       json_agg(bc.mesh_term) mesh_terms
                                FROM browse_conditions bc
                                GROUP BY bc.nct_id) bc_collected
                                   LEFT JOIN (SELECT c.nct_id         nct_id,
                                                     json_agg(c.name) condition_names
                                              FROM conditions c
                                              GROUP BY c.nct_id) collected_conds
                                             ON collected_conds.nct_id = bc_collected.nct_id) collected_conditions
                         ON relevant_studies.nct_id = collected_conditions.nct_id`

// SnapshotRow is one extracted row, all columns as text. JSON-aggregated
// columns (other names, refs, conditions, mesh terms) stay JSON-encoded
// until the preprocessing stage decodes them.
type SnapshotRow struct {
	NCTID          string
	StartDate      string
	CompletionDate string
	Enrollment     string
	EnrollmentType string
	NumberOfArms   string
	NumberOfGroups string
	WhyStopped     string
	Phase          string
	OverallStatus  string
	DesignGroupID  string
	GroupType      string
	Title          string
	Name           string
	OtherNamesJSON string
	Description    string
	RefsJSON       string
	MeshTermsJSON  string
	ConditionsJSON string
}

// Fetcher holds the connection pool to the AACT mirror.
type Fetcher struct {
	pool *pgxpool.Pool
}

// Connect establishes the pool and verifies it with a ping. Credentials
// are required; the mirror does not allow anonymous access.
func Connect(ctx context.Context, cfg types.AACTConfig) (*Fetcher, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("aact credentials missing: set user and password")
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	database := cfg.Database
	if database == "" {
		database = "aact"
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, database, sslMode)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing aact connection config: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to aact: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging aact: %w", err)
	}
	return &Fetcher{pool: pool}, nil
}

// Close releases the connection pool.
func (f *Fetcher) Close() {
	f.pool.Close()
}

// Fetch runs the snapshot query and returns all rows. The result set is
// a few hundred thousand rows at most; it fits in memory comfortably.
func (f *Fetcher) Fetch(ctx context.Context) ([]SnapshotRow, error) {
	rows, err := f.pool.Query(ctx, snapshotQuery)
	if err != nil {
		return nil, fmt.Errorf("running snapshot query: %w", err)
	}
	defer rows.Close()

	var snapshot []SnapshotRow
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading snapshot row: %w", err)
		}
		snapshot = append(snapshot, rowFromValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return snapshot, nil
}

// rowFromValues maps the query's column order onto a SnapshotRow.
func rowFromValues(values []any) SnapshotRow {
	at := func(i int) string {
		if i >= len(values) {
			return ""
		}
		return columnText(values[i])
	}
	return SnapshotRow{
		NCTID:          at(0),
		StartDate:      at(1),
		CompletionDate: at(2),
		Enrollment:     at(3),
		EnrollmentType: at(4),
		NumberOfArms:   at(5),
		NumberOfGroups: at(6),
		WhyStopped:     at(7),
		Phase:          at(8),
		OverallStatus:  at(9),
		DesignGroupID:  at(10),
		GroupType:      at(11),
		Title:          at(12),
		Name:           at(13),
		OtherNamesJSON: at(14),
		Description:    at(15),
		RefsJSON:       at(16),
		MeshTermsJSON:  at(17),
		ConditionsJSON: at(18),
	}
}

// columnText renders a scanned column value as text. NULLs become empty
// strings; JSON aggregates arrive as []byte or map-free any values and
// are kept verbatim.
func columnText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case int16:
		return strconv.FormatInt(int64(value), 10)
	case int32:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		return value.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", value)
	}
}
