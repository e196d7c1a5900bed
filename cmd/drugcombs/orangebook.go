package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/drugcombs/internal/orangebook"
)

var orangebookCmd = &cobra.Command{
	Use:   "orangebook",
	Short: "Extract drug combinations from the FDA Orange Book",
	Long: `Orangebook parses the products.txt and patent.txt files of an Orange
Book release, keeps multi-ingredient products, joins patent info by
application number, resolves each ingredient against the registries and
writes the combination table.`,
	RunE: runOrangeBook,
}

func init() {
	orangebookCmd.Flags().String("dir", "", "Orange Book release directory")
	orangebookCmd.Flags().String("output", orangebook.CombsFile, "combination table output path")
	addResolverFlags(orangebookCmd)

	rootCmd.AddCommand(orangebookCmd)
}

func runOrangeBook(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	output, _ := cmd.Flags().GetString("output")
	if dir == "" {
		return fmt.Errorf("--dir is required")
	}

	combs, err := orangebook.ParseDir(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Parsed %d multi-ingredient products\n", len(combs))

	resolver, workers, cleanup, err := newResolver(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	resolved, err := orangebook.Resolve(cmd.Context(), resolver, combs, workers, os.Stderr)
	if err != nil {
		return err
	}
	if err := orangebook.WriteCombsFile(output, resolved); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d combinations to %s\n", len(resolved), output)
	return nil
}
