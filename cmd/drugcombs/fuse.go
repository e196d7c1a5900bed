package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meshintel/drugcombs/internal/fuse"
)

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Merge per-source combination tables into the unified table",
	Long: `Fuse reads the trials, patents and orangebook combination CSVs from
the input directory, harmonizes their columns, and writes the unified
unnormalized combinations table plus a web preview with display names.`,
	RunE: runFuse,
}

func init() {
	fuseCmd.Flags().String("input-dir", ".", "directory with the per-source combination CSVs")
	fuseCmd.Flags().String("output-dir", ".", "directory for the merged tables")
	fuseCmd.Flags().String("drug-names", "", "optional DrugBank display-names CSV for the web preview")

	rootCmd.AddCommand(fuseCmd)
}

func runFuse(cmd *cobra.Command, args []string) error {
	inputDir, _ := cmd.Flags().GetString("input-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	drugNamesPath, _ := cmd.Flags().GetString("drug-names")

	combs, err := fuse.Fuse(inputDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	allPath := filepath.Join(outputDir, fuse.AllCombsFile)
	if err := fuse.WriteAllFile(allPath, combs); err != nil {
		return err
	}

	names := map[string]string{}
	if drugNamesPath != "" {
		names, err = fuse.LoadDrugNames(drugNamesPath)
		if err != nil {
			return err
		}
	}
	previewPath := filepath.Join(outputDir, fuse.WebPreviewFile)
	if err := fuse.WriteWebPreviewFile(previewPath, combs, names); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d combinations to %s and %s\n", len(combs), allPath, previewPath)
	return nil
}
