// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package link maps normalized drug names to canonical ontology concepts.
package link

import (
	"errors"
	"fmt"

	"github.com/agext/levenshtein"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meshintel/drugcombs/internal/cache"
	"github.com/meshintel/drugcombs/internal/ontology"
)

// ErrAmbiguous signals that a name contained more than one entity span.
// Such a record cannot be attributed to a single drug; the caller must
// flag it and exclude the whole design group rather than guess.
var ErrAmbiguous = errors.New("name contains more than one entity")

const defaultMemoSize = 50000

// Linker resolves a name to the canonical name of the best-matching
// drug-like ontology concept. Results are memoized in-process for the
// lifetime of one run and written through to a durable cache so repeat
// runs skip the recognizer entirely.
type Linker struct {
	recognizer ontology.Recognizer
	store      *cache.Store
	memo       *lru.Cache[string, string]
}

// New builds a Linker around an injected recognizer. store may be nil
// (no durable caching, used by some tests). memoSize <= 0 uses the
// default bound of 50000 entries.
func New(recognizer ontology.Recognizer, store *cache.Store, memoSize int) (*Linker, error) {
	if memoSize <= 0 {
		memoSize = defaultMemoSize
	}
	memo, err := lru.New[string, string](memoSize)
	if err != nil {
		return nil, fmt.Errorf("creating linker memo: %w", err)
	}
	return &Linker{recognizer: recognizer, store: store, memo: memo}, nil
}

// Link returns the canonical name for the best concept match, or "" when
// the name contains no linkable entity. Absence is expected for junk
// text and is not an error; ErrAmbiguous is returned when more than one
// entity span is detected.
func (l *Linker) Link(name string) (string, error) {
	if hit, ok := l.memo.Get(name); ok {
		return hit, nil
	}
	if l.store != nil {
		if value, ok, err := l.store.Get(name); err != nil {
			return "", fmt.Errorf("linker cache read: %w", err)
		} else if ok {
			l.memo.Add(name, value)
			return value, nil
		}
	}

	mentions, err := l.recognizer.Recognize(name)
	if err != nil {
		return "", fmt.Errorf("recognizing %q: %w", name, err)
	}
	if len(mentions) > 1 {
		return "", fmt.Errorf("%q: %w", name, ErrAmbiguous)
	}
	if len(mentions) == 0 {
		l.memo.Add(name, "")
		return "", nil
	}

	canonical := bestMatch(mentions[0])
	l.memo.Add(name, canonical)
	if canonical != "" && l.store != nil {
		if err := l.store.Put(name, canonical); err != nil {
			return "", fmt.Errorf("linker cache write: %w", err)
		}
	}
	return canonical, nil
}

// bestMatch picks, among drug-like candidate concepts, the alias with the
// minimum edit distance to the mention text and returns its concept's
// canonical name. Ties keep the first alias encountered; the recognizer
// contract orders candidates by descending score then concept ID, which
// makes the tie-break deterministic.
func bestMatch(m ontology.Mention) string {
	best := ""
	bestDistance := -1
	for _, candidate := range m.Candidates {
		c := candidate.Concept
		if !ontology.IsDrugLike(c.Types) {
			continue
		}
		for _, alias := range append([]string{c.CanonicalName}, c.Aliases...) {
			d := levenshtein.Distance(alias, m.Text, nil)
			if bestDistance < 0 || d < bestDistance {
				bestDistance = d
				best = c.CanonicalName
			}
		}
	}
	return best
}
