// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data and configuration types shared across
// pipeline stages.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that call external
// registries.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "drugcombs/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AACTConfig holds connection settings for the AACT clinical-trials
// Postgres mirror.
type AACTConfig struct {
	// Host is the database host, e.g. "aact-db.ctti-clinicaltrials.org".
	Host string `json:"host" yaml:"host"`

	// Port is the database port (default 5432).
	Port int `json:"port" yaml:"port"`

	// Database is the database name (default "aact").
	Database string `json:"database" yaml:"database"`

	// User and Password authenticate against the mirror. They are usually
	// supplied through the secrets directory rather than the config file.
	User     string `json:"user" yaml:"user"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// SSLMode is passed through to the connection string (default "require").
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`
}

// CacheConfig locates the durable lookup caches.
type CacheConfig struct {
	// Dir is the directory holding the cache database (default ".drugcombs-cache").
	Dir string `json:"dir" yaml:"dir"`
}

// LinkerConfig holds settings for ontology entity linking.
type LinkerConfig struct {
	// ConceptsPath is the JSON-lines file of ontology concepts.
	ConceptsPath string `json:"concepts_path" yaml:"concepts_path"`

	// MemoSize bounds the in-process memoization of linked names
	// (default 50000). Lifetime is one pipeline run.
	MemoSize int `json:"memo_size" yaml:"memo_size"`
}

// ResolverConfig holds settings for external identifier resolution.
type ResolverConfig struct {
	HTTPConfig `yaml:",inline"`

	// QIDToDrugBankPath and QIDToPubChemPath are the static JSON mappings
	// from knowledge-graph entity IDs to registry identifiers. Both are
	// required; an unreadable file is fatal at startup.
	QIDToDrugBankPath string `json:"qid_to_drugbank_path" yaml:"qid_to_drugbank_path"`
	QIDToPubChemPath  string `json:"qid_to_pubchem_path" yaml:"qid_to_pubchem_path"`

	// Workers is the number of parallel resolution workers (default 8).
	Workers int `json:"workers" yaml:"workers"`
}

// TrialsConfig holds settings for the clinical-trials preprocessing stage.
type TrialsConfig struct {
	// OutputDir receives the normalized combination tables.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ErrorsPath receives design-group rows excluded for entity ambiguity
	// (default "<output_dir>/errors.csv").
	ErrorsPath string `json:"errors_path" yaml:"errors_path"`
}

// OrangeBookConfig holds settings for the regulatory file stage.
type OrangeBookConfig struct {
	// Dir is the Orange Book extract directory containing products.txt
	// and patent.txt.
	Dir string `json:"dir" yaml:"dir"`
}

// FuseConfig holds settings for the combination fusion stage.
type FuseConfig struct {
	// InputDir contains the per-source combination CSVs.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives the unified table and the web preview.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DrugNamesPath maps DrugBank IDs to display names for the preview
	// table. Optional; when absent the first raw name is shown.
	DrugNamesPath string `json:"drug_names_path" yaml:"drug_names_path"`
}
