// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ontology provides read-only access to a pre-built medical
// concept knowledge base. The package consumes the ontology as a black
// box; it does not build or train one.
package ontology

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/meshintel/drugcombs/pkg/types"
)

// DrugTypes is the whitelist of semantic type codes that denote drugs or
// chemicals. A concept qualifies for linking when its type set intersects
// this list.
var DrugTypes = map[string]struct{}{
	"T109": {}, // Organic Chemical
	"T114": {}, // Nucleic Acid, Nucleoside, or Nucleotide
	"T116": {}, // Amino Acid, Peptide, or Protein
	"T121": {}, // Pharmacologic Substance
	"T123": {}, // Biologically Active Substance
	"T125": {}, // Hormone
	"T126": {}, // Enzyme
	"T129": {}, // Immunologic Factor
	"T195": {}, // Antibiotic
	"T200": {}, // Clinical Drug
}

// IsDrugLike reports whether any of the type codes is in the whitelist.
func IsDrugLike(typeCodes []string) bool {
	for _, code := range typeCodes {
		if _, ok := DrugTypes[code]; ok {
			return true
		}
	}
	return false
}

// ScoredConcept is a candidate concept for a recognized mention, with
// the recognizer's confidence.
type ScoredConcept struct {
	Concept types.Concept
	Score   float64
}

// Mention is one entity span detected in a name, with its ranked
// candidate concepts.
type Mention struct {
	Text       string
	Candidates []ScoredConcept
}

// Recognizer detects entity mentions in free text and proposes candidate
// ontology concepts for each. Implementations wrap an NLP pipeline; tests
// substitute stubs.
type Recognizer interface {
	Recognize(text string) ([]Mention, error)
}

// KB is an in-memory concept store loaded from a JSON-lines file, with an
// alias index for dictionary recognition.
type KB struct {
	concepts map[string]types.Concept
	// aliasIndex maps a folded alias to the IDs of concepts carrying it.
	aliasIndex map[string][]string
}

// Load reads a JSON-lines concept file: one Concept object per line.
// An unreadable or malformed file is a configuration error and fatal to
// the caller; no partial ontology is returned.
func Load(path string) (*KB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening concepts file: %w", err)
	}
	defer f.Close()

	kb := &KB{
		concepts:   make(map[string]types.Concept),
		aliasIndex: make(map[string][]string),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var c types.Concept
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, fmt.Errorf("concepts file line %d: %w", line, err)
		}
		if c.ID == "" {
			return nil, fmt.Errorf("concepts file line %d: concept without an id", line)
		}
		kb.add(c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading concepts file: %w", err)
	}
	return kb, nil
}

// NewKB builds a store from already-loaded concepts. Used by tests and by
// callers that assemble a small ontology programmatically.
func NewKB(concepts []types.Concept) *KB {
	kb := &KB{
		concepts:   make(map[string]types.Concept, len(concepts)),
		aliasIndex: make(map[string][]string),
	}
	for _, c := range concepts {
		kb.add(c)
	}
	return kb
}

func (kb *KB) add(c types.Concept) {
	kb.concepts[c.ID] = c
	for _, alias := range append([]string{c.CanonicalName}, c.Aliases...) {
		folded := Fold(alias)
		if folded == "" {
			continue
		}
		ids := kb.aliasIndex[folded]
		if len(ids) == 0 || ids[len(ids)-1] != c.ID {
			kb.aliasIndex[folded] = append(ids, c.ID)
		}
	}
}

// Concept returns the concept with the given ID.
func (kb *KB) Concept(id string) (types.Concept, bool) {
	c, ok := kb.concepts[id]
	return c, ok
}

// Size returns the number of concepts in the store.
func (kb *KB) Size() int {
	return len(kb.concepts)
}

// Fold lowercases and collapses whitespace for alias comparison.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// DictionaryRecognizer is a Recognizer backed by the KB's alias index.
// It reports at most one mention per distinct matched concept-name region:
// the whole input matches a known alias, or failing that, each maximal
// alias substring found by scanning word windows. Longer matches win;
// mentions never overlap.
type DictionaryRecognizer struct {
	kb *KB
}

// NewDictionaryRecognizer wraps a KB in the Recognizer interface.
func NewDictionaryRecognizer(kb *KB) *DictionaryRecognizer {
	return &DictionaryRecognizer{kb: kb}
}

// Recognize scans the text for alias matches. The whole-string match is
// preferred; otherwise a greedy longest-window scan over the words finds
// non-overlapping mentions left to right.
func (r *DictionaryRecognizer) Recognize(text string) ([]Mention, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if m, ok := r.mentionFor(text); ok {
		return []Mention{m}, nil
	}

	words := strings.Fields(text)
	var mentions []Mention
	for start := 0; start < len(words); {
		matched := false
		for end := len(words); end > start; end-- {
			span := strings.Join(words[start:end], " ")
			if m, ok := r.mentionFor(span); ok {
				mentions = append(mentions, m)
				start = end
				matched = true
				break
			}
		}
		if !matched {
			start++
		}
	}
	return mentions, nil
}

// mentionFor builds a mention when the span matches at least one alias.
// Candidates are ordered deterministically: descending score, then
// concept ID. Score is the fraction of the concept's aliases equal to the
// folded span (crude, but stable and test-friendly).
func (r *DictionaryRecognizer) mentionFor(span string) (Mention, bool) {
	ids := r.kb.aliasIndex[Fold(span)]
	if len(ids) == 0 {
		return Mention{}, false
	}

	seen := make(map[string]struct{}, len(ids))
	candidates := make([]ScoredConcept, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c := r.kb.concepts[id]
		candidates = append(candidates, ScoredConcept{Concept: c, Score: aliasScore(c, span)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Concept.ID < candidates[j].Concept.ID
	})
	return Mention{Text: span, Candidates: candidates}, true
}

func aliasScore(c types.Concept, span string) float64 {
	folded := Fold(span)
	if Fold(c.CanonicalName) == folded {
		return 1
	}
	matches := 0
	for _, alias := range c.Aliases {
		if Fold(alias) == folded {
			matches++
		}
	}
	if len(c.Aliases) == 0 {
		return 0
	}
	return float64(matches) / float64(len(c.Aliases))
}
