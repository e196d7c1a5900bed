// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Identifier sentinels. Missing means a lookup ran and found nothing;
// Placebo means the record was recognized as a placebo arm and no real
// identifier applies. Absence of a cache entry means "not yet looked up",
// which is distinct from both.
const (
	Missing = "-1"
	Placebo = "PLACEBO"
)

// CacheSep joins the two identifier fields in the durable cache encoding.
// It is deliberately long so it can never collide with identifier text.
const CacheSep = "@@@@@@"

// IdentifierPair is the terminal output of drug identifier resolution.
// The two fields are resolved independently: a drug may carry a real
// DrugBank ID alongside a Missing PubChem ID.
type IdentifierPair struct {
	DrugBankID string `json:"drugbank_id" yaml:"drugbank_id"`
	PubChemID  string `json:"pubchem_id" yaml:"pubchem_id"`
}

// MissingPair returns a pair with both identifiers Missing.
func MissingPair() IdentifierPair {
	return IdentifierPair{DrugBankID: Missing, PubChemID: Missing}
}

// PlaceboPair returns the pair used for placebo arms.
func PlaceboPair() IdentifierPair {
	return IdentifierPair{DrugBankID: Placebo, PubChemID: Placebo}
}

// IsPlacebo reports whether the pair marks a placebo arm.
func (p IdentifierPair) IsPlacebo() bool {
	return p.DrugBankID == Placebo && p.PubChemID == Placebo
}

// Complete reports whether both identifiers have been found.
func (p IdentifierPair) Complete() bool {
	return p.DrugBankID != Missing && p.PubChemID != Missing
}

// Encode serializes the pair for the durable cache: the DrugBank ID and
// the PubChem ID joined by CacheSep.
func (p IdentifierPair) Encode() string {
	return p.DrugBankID + CacheSep + p.PubChemID
}

// DecodePair parses an Encode-produced string. It validates the shape
// rather than trusting the cache blindly; a namespace that holds a
// different format should be rebuilt, not reinterpreted.
func DecodePair(s string) (IdentifierPair, error) {
	parts := strings.Split(s, CacheSep)
	if len(parts) != 2 {
		return IdentifierPair{}, fmt.Errorf("malformed identifier pair %q: want 2 fields, got %d", s, len(parts))
	}
	return IdentifierPair{DrugBankID: parts[0], PubChemID: parts[1]}, nil
}
