package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/drugcombs/internal/bulk"
	"github.com/meshintel/drugcombs/internal/cache"
	"github.com/meshintel/drugcombs/internal/resolve"
	"github.com/meshintel/drugcombs/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "drugcombs/0.1"
	defaultWorkers   = 8
	defaultCacheDir  = ".drugcombs-cache"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Add registry identifier columns to a CSV of drug names",
	Long: `Resolve reads a CSV, resolves the drug names in one of its columns
against the knowledge graph and the compound registry, and writes the
input back out with drugbank_id and pubchem_id columns appended.

The column may hold a single name per row (--mode single) or a
JSON-encoded list of synonyms for one drug (--mode list).`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("input", "", "input CSV path")
	resolveCmd.Flags().String("output", "", "output CSV path")
	resolveCmd.Flags().String("column", "", "name of the drug column")
	resolveCmd.Flags().String("mode", "single", "column mode: single or list")
	addResolverFlags(resolveCmd)

	rootCmd.AddCommand(resolveCmd)
}

// addResolverFlags registers the flags shared by every subcommand that
// resolves identifiers.
func addResolverFlags(cmd *cobra.Command) {
	cmd.Flags().String("qid-to-drugbank", "input_data/qid_to_drugbank.json", "knowledge-graph to DrugBank mapping")
	cmd.Flags().String("qid-to-pubchem", "input_data/qid_to_pubchem.json", "knowledge-graph to PubChem mapping")
	cmd.Flags().String("cache-dir", defaultCacheDir, "directory for the durable lookup cache")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	cmd.Flags().Int("workers", 0, "parallel resolution workers (default 8)")
}

// newResolver builds the identifier resolver from a subcommand's flags.
// The returned cleanup closes the durable cache stores.
func newResolver(cmd *cobra.Command) (*resolve.Resolver, int, func(), error) {
	qidToDrugBank, _ := cmd.Flags().GetString("qid-to-drugbank")
	qidToPubChem, _ := cmd.Flags().GetString("qid-to-pubchem")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = defaultWorkers
	}

	cfg := types.ResolverConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		QIDToDrugBankPath: qidToDrugBank,
		QIDToPubChemPath:  qidToPubChem,
		Workers:           workers,
	}
	client := &http.Client{Timeout: cfg.Timeout}

	wikiStore, err := cache.Open(cacheDir, "wikidata")
	if err != nil {
		return nil, 0, nil, err
	}
	registryStore, err := cache.Open(cacheDir, "registry")
	if err != nil {
		wikiStore.Close()
		return nil, 0, nil, err
	}
	cleanup := func() {
		wikiStore.Close()
		registryStore.Close()
	}

	wiki, err := resolve.NewWikidataResolver(client, cfg, wikiStore, os.Stderr)
	if err != nil {
		cleanup()
		return nil, 0, nil, err
	}
	registry := resolve.NewRegistryResolver(client, cfg, registryStore, os.Stderr)
	return resolve.NewResolver(wiki, registry), workers, cleanup, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	column, _ := cmd.Flags().GetString("column")
	mode, _ := cmd.Flags().GetString("mode")
	if input == "" || output == "" || column == "" {
		return fmt.Errorf("--input, --output and --column are required")
	}
	if mode != "single" && mode != "list" {
		return fmt.Errorf("unknown --mode %q, want single or list", mode)
	}

	resolver, workers, cleanup, err := newResolver(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening input CSV: %w", err)
	}
	records, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		return fmt.Errorf("reading input CSV: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("input CSV %s is empty", input)
	}

	col := -1
	for i, name := range records[0] {
		if name == column {
			col = i
		}
	}
	if col < 0 {
		return fmt.Errorf("input CSV has no column %q", column)
	}

	ctx := cmd.Context()
	pairs, err := bulk.MapWithProgress(ctx, records[1:], workers, os.Stderr,
		func(ctx context.Context, row []string) (types.IdentifierPair, error) {
			return resolveCell(ctx, resolver, row[col], mode)
		})
	if err != nil {
		return err
	}

	out := make([][]string, 0, len(records))
	out = append(out, append(records[0], "drugbank_id", "pubchem_id"))
	for i, row := range records[1:] {
		out = append(out, append(row, pairs[i].DrugBankID, pairs[i].PubChemID))
	}

	of, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output CSV: %w", err)
	}
	cw := csv.NewWriter(of)
	if err := cw.WriteAll(out); err != nil {
		of.Close()
		return fmt.Errorf("writing output CSV: %w", err)
	}
	return of.Close()
}

// resolveCell resolves one CSV cell, interpreting it per the column mode.
func resolveCell(ctx context.Context, resolver *resolve.Resolver, cell, mode string) (types.IdentifierPair, error) {
	if mode == "single" {
		return resolver.ResolveName(ctx, cell)
	}
	var names []string
	if cell != "" {
		if err := json.Unmarshal([]byte(cell), &names); err != nil {
			return types.IdentifierPair{}, fmt.Errorf("decoding list cell %q: %w", cell, err)
		}
	}
	return resolver.Resolve(ctx, names)
}
