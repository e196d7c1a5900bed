package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/drugcombs/internal/aact"
	"github.com/meshintel/drugcombs/pkg/types"
)

const defaultAACTHost = "aact-db.ctti-clinicaltrials.org"

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull the clinical-trials snapshot from the AACT mirror",
	Long: `Fetch connects to the AACT Postgres mirror and extracts the drug
interventions of multi-intervention design groups, together with their
trial metadata, conditions, mesh terms and references, into a snapshot
CSV consumed by the trials subcommand.

Credentials come from --user/--password or from the .secrets/ files
aact-user and aact-password.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("host", defaultAACTHost, "AACT database host")
	fetchCmd.Flags().Int("port", 5432, "AACT database port")
	fetchCmd.Flags().String("database", "aact", "AACT database name")
	fetchCmd.Flags().String("user", "", "AACT username")
	fetchCmd.Flags().String("password", "", "AACT password")
	fetchCmd.Flags().String("sslmode", "require", "Postgres sslmode")
	fetchCmd.Flags().String("output", "snapshot.csv", "snapshot output path")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	database, _ := cmd.Flags().GetString("database")
	user, _ := cmd.Flags().GetString("user")
	password, _ := cmd.Flags().GetString("password")
	sslMode, _ := cmd.Flags().GetString("sslmode")
	output, _ := cmd.Flags().GetString("output")

	cfg := types.AACTConfig{
		Host:     host,
		Port:     port,
		Database: database,
		User:     secretDefault("aact-user", user),
		Password: secretDefault("aact-password", password),
		SSLMode:  sslMode,
	}

	ctx := cmd.Context()
	fetcher, err := aact.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	fmt.Fprintf(os.Stderr, "Fetching snapshot from %s/%s\n", cfg.Host, cfg.Database)
	rows, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := aact.WriteSnapshotFile(output, rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d snapshot rows to %s\n", len(rows), output)
	return nil
}
