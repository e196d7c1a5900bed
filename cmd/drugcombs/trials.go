package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/drugcombs/internal/aact"
	"github.com/meshintel/drugcombs/internal/cache"
	"github.com/meshintel/drugcombs/internal/link"
	"github.com/meshintel/drugcombs/internal/ontology"
	"github.com/meshintel/drugcombs/internal/trials"
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Preprocess the clinical-trials snapshot into combination tables",
	Long: `Trials cleans the intervention names of a fetched snapshot, collapses
placebo arms, links each name against the drug ontology, resolves
registry identifiers and writes the normalized combination tables.

Design groups containing an ambiguous intervention are excluded as a
whole and reported in errors.csv.`,
	RunE: runTrials,
}

func init() {
	trialsCmd.Flags().String("snapshot", "snapshot.csv", "snapshot CSV from the fetch subcommand")
	trialsCmd.Flags().String("output-dir", "trials_out", "directory for the combination tables")
	trialsCmd.Flags().String("concepts", "input_data/concepts.jsonl", "ontology concepts JSON-lines file")
	trialsCmd.Flags().Int("memo-size", 0, "in-process linker memoization size (default 50000)")
	addResolverFlags(trialsCmd)

	rootCmd.AddCommand(trialsCmd)
}

func runTrials(cmd *cobra.Command, args []string) error {
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	conceptsPath, _ := cmd.Flags().GetString("concepts")
	memoSize, _ := cmd.Flags().GetInt("memo-size")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")

	snapshot, err := aact.ReadSnapshotFile(snapshotPath)
	if err != nil {
		return err
	}

	kb, err := ontology.Load(conceptsPath)
	if err != nil {
		return err
	}
	linkStore, err := cache.Open(cacheDir, "linker")
	if err != nil {
		return err
	}
	defer linkStore.Close()
	linker, err := link.New(ontology.NewDictionaryRecognizer(kb), linkStore, memoSize)
	if err != nil {
		return err
	}

	resolver, workers, cleanup, err := newResolver(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := &trials.Pipeline{
		Linker:   linker,
		Resolver: resolver,
		Workers:  workers,
		Progress: os.Stderr,
	}
	result, err := pipeline.Run(cmd.Context(), snapshot)
	if err != nil {
		return err
	}
	if err := trials.WriteTables(outputDir, snapshot, result); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Processed %d rows, flagged %d, dropped %d; tables in %s\n",
		result.Processed, result.Flagged, result.Dropped, outputDir)
	return nil
}
