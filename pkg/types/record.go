// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// InterventionRecord is one design-group intervention row from the
// clinical-trials extraction. Immutable once read.
type InterventionRecord struct {
	NCTID         string   `json:"nct_id" yaml:"nct_id"`
	DesignGroupID string   `json:"design_group_id" yaml:"design_group_id"`
	GroupType     string   `json:"group_type" yaml:"group_type"`
	Title         string   `json:"title" yaml:"title"`
	Name          string   `json:"intervention_name" yaml:"intervention_name"`
	OtherNames    []string `json:"other_names" yaml:"other_names"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// AllNames returns the primary intervention name followed by its synonyms,
// in extraction order.
func (r InterventionRecord) AllNames() []string {
	names := make([]string, 0, len(r.OtherNames)+1)
	names = append(names, r.Name)
	names = append(names, r.OtherNames...)
	return names
}

// Concept is a read-only ontology concept: a preferred label, its known
// aliases, and the semantic type codes it is classified under.
type Concept struct {
	ID            string   `json:"concept_id" yaml:"concept_id"`
	CanonicalName string   `json:"canonical_name" yaml:"canonical_name"`
	Aliases       []string `json:"aliases" yaml:"aliases"`
	Types         []string `json:"types" yaml:"types"`
}

// Combination is one drug combination row in the fused output table.
// Drugs, DrugBankIDs and PubChemIDs are parallel slices.
type Combination struct {
	Drugs       []string `json:"drugs" yaml:"drugs"`
	DrugBankIDs []string `json:"drugbank_identifiers" yaml:"drugbank_identifiers"`
	PubChemIDs  []string `json:"pubchem_identifiers" yaml:"pubchem_identifiers"`
	SourceID    string   `json:"source_id" yaml:"source_id"`
	Source      string   `json:"source" yaml:"source"`
}
