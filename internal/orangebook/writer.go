// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orangebook

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CombsFile is the combination table filename consumed downstream.
const CombsFile = "orangebook_combs_df.csv"

var combsHeader = []string{
	"trade_name", "appl_type", "appl_no", "product_no", "te_code",
	"approval_date", "rld", "rs", "type", "applicant",
	"patent_no", "patent_expire_date", "patent_use_code",
	"drugs_names", "drugbank_ids", "pubchem_ids",
}

// WriteCombs writes the combination table as CSV. The name and
// identifier lists are JSON-encoded so a single column survives names
// that themselves contain commas.
func WriteCombs(w io.Writer, combs []Combination) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(combsHeader); err != nil {
		return fmt.Errorf("writing combinations header: %w", err)
	}
	for _, comb := range combs {
		var patentNo, patentExpire, patentUse string
		if comb.Patent != nil {
			patentNo = comb.Patent.PatentNo
			patentExpire = comb.Patent.ExpireDate
			patentUse = comb.Patent.UseCode
		}
		record := []string{
			comb.TradeName, comb.ApplType, comb.ApplNo, comb.ProductNo,
			comb.TECode, comb.ApprovalDate, comb.RLD, comb.RS, comb.Type,
			comb.Applicant, patentNo, patentExpire, patentUse,
			encodeList(comb.Drugs), encodeList(comb.DrugBankIDs),
			encodeList(comb.PubChemIDs),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing combination row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCombsFile writes the combination table to path.
func WriteCombsFile(path string, combs []Combination) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating combinations file: %w", err)
	}
	if err := WriteCombs(f, combs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}
