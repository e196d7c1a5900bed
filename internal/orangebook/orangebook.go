// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orangebook parses the FDA Orange Book data files and extracts
// multi-ingredient products as drug combinations.
package orangebook

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meshintel/drugcombs/internal/bulk"
	"github.com/meshintel/drugcombs/pkg/types"
)

// Data file names inside an Orange Book release directory.
const (
	ProductsFile = "products.txt"
	PatentFile   = "patent.txt"
)

// Patent is the patent info attached to an application. When several
// patents cover one application the last one in the file wins, matching
// the join the combination table has always used.
type Patent struct {
	ApplNo        string
	ProductNo     string
	PatentNo      string
	ExpireDate    string
	SubstanceFlag string
	ProductFlag   string
	UseCode       string
	DelistFlag    string
	SubmittedDate string
}

// Combination is one multi-ingredient product, optionally joined with
// its patent record.
type Combination struct {
	Drugs         []string
	TradeName     string
	ApplType      string
	ApplNo        string
	ProductNo     string
	TECode        string
	ApprovalDate  string
	RLD           string
	RS            string
	Type          string
	Applicant     string
	Patent        *Patent
	DrugBankIDs   []string
	PubChemIDs    []string
}

// ParsePatents reads patent.txt ("~"-delimited) into a map keyed by
// application number.
func ParsePatents(r io.Reader) (map[string]Patent, error) {
	patents := make(map[string]Patent)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue // header
		}
		fields := strings.Split(scanner.Text(), "~")
		if len(fields) < 10 {
			return nil, fmt.Errorf("patent line %d has %d fields, want at least 10", line, len(fields))
		}
		p := Patent{
			ApplNo:        fields[1],
			ProductNo:     fields[2],
			PatentNo:      fields[3],
			ExpireDate:    fields[4],
			SubstanceFlag: fields[5],
			ProductFlag:   fields[6],
			UseCode:       fields[7],
			DelistFlag:    fields[8],
			SubmittedDate: strings.TrimSpace(fields[9]),
		}
		patents[p.ApplNo] = p
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading patent file: %w", err)
	}
	return patents, nil
}

// ParseProducts reads products.txt and keeps only multi-ingredient
// products, joining each against the patent map. Single-ingredient
// products are not combinations and are skipped. Duplicate ingredient
// sets keep their first occurrence.
func ParseProducts(r io.Reader, patents map[string]Patent) ([]Combination, error) {
	var combs []Combination
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue // header
		}
		fields := strings.Split(scanner.Text(), "~")
		if len(fields) < 14 {
			return nil, fmt.Errorf("product line %d has %d fields, want at least 14", line, len(fields))
		}
		ingredients := fields[0]
		if !strings.Contains(ingredients, ";") {
			continue
		}
		drugs := strings.Split(ingredients, "; ")
		key := strings.Join(drugs, "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		comb := Combination{
			Drugs:        drugs,
			TradeName:    fields[2],
			ApplType:     fields[5],
			ApplNo:       fields[6],
			ProductNo:    fields[7],
			TECode:       fields[8],
			ApprovalDate: fields[9],
			RLD:          fields[10],
			RS:           fields[11],
			Type:         fields[12],
			Applicant:    strings.TrimSpace(fields[13]),
		}
		if p, ok := patents[comb.ApplNo]; ok {
			comb.Patent = &p
		}
		combs = append(combs, comb)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading products file: %w", err)
	}
	return combs, nil
}

// ParseDir parses an Orange Book release directory.
func ParseDir(dir string) ([]Combination, error) {
	pf, err := os.Open(filepath.Join(dir, PatentFile))
	if err != nil {
		return nil, fmt.Errorf("opening patent file: %w", err)
	}
	defer pf.Close()
	patents, err := ParsePatents(pf)
	if err != nil {
		return nil, err
	}

	prf, err := os.Open(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, fmt.Errorf("opening products file: %w", err)
	}
	defer prf.Close()
	return ParseProducts(prf, patents)
}

// NameResolver maps one drug name to its identifier pair.
// *resolve.Resolver satisfies it.
type NameResolver interface {
	ResolveName(ctx context.Context, name string) (types.IdentifierPair, error)
}

// Resolve fills the per-ingredient identifier columns, fanning out
// across combinations. Within one combination the identifier slices
// stay aligned with Drugs; empty ingredient names resolve to ("","").
func Resolve(ctx context.Context, resolver NameResolver, combs []Combination, workers int, progress io.Writer) ([]Combination, error) {
	if progress == nil {
		progress = io.Discard
	}
	return bulk.MapWithProgress(ctx, combs, workers, progress,
		func(ctx context.Context, comb Combination) (Combination, error) {
			comb.DrugBankIDs = make([]string, len(comb.Drugs))
			comb.PubChemIDs = make([]string, len(comb.Drugs))
			for i, drug := range comb.Drugs {
				pair, err := resolver.ResolveName(ctx, strings.TrimSpace(drug))
				if err != nil {
					return comb, fmt.Errorf("resolving %q: %w", drug, err)
				}
				comb.DrugBankIDs[i] = pair.DrugBankID
				comb.PubChemIDs[i] = pair.PubChemID
			}
			return comb, nil
		})
}
