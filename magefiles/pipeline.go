//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI binary with args, streaming its output.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}

// Fetch pulls the clinical-trials snapshot from the AACT mirror.
func Fetch() error {
	mg.Deps(Build)
	return run("fetch", "--output", "snapshot.csv")
}

// Trials preprocesses the snapshot into the combination tables.
func Trials() error {
	mg.Deps(Build)
	return run("trials", "--snapshot", "snapshot.csv", "--output-dir", "trials_out")
}

// Orangebook extracts combinations from the Orange Book release in input_data/orangebook.
func Orangebook() error {
	mg.Deps(Build)
	return run("orangebook",
		"--dir", filepath.Join("input_data", "orangebook"),
		"--output", filepath.Join("trials_out", "orangebook_combs_df.csv"))
}

// Fuse merges the per-source combination tables.
func Fuse() error {
	mg.Deps(Build)
	return run("fuse", "--input-dir", "trials_out", "--output-dir", "fused_out")
}
