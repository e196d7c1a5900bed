// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw clinical-trial intervention names into
// canonical surface forms. Cleaning is a fixed sequence of lossy filters;
// order matters, and collisions between cleaned names are desired — they
// become cache hits downstream.
package normalize

import (
	"regexp"
	"strings"
)

// stopwords are dosage-form and administrative words dropped from names
// by whole-word, case-insensitive match.
var stopwords = map[string]struct{}{
	"single": {}, "dose": {}, "low": {}, "slow": {}, "solid": {},
	"spray": {}, "stable": {}, "subarachnoid": {}, "subconjunctival": {},
	"subcutaneous": {}, "sublingual": {}, "submucosal": {},
	"suppositories": {}, "sustained-release": {}, "tablet": {},
	"tablets": {}, "therapy": {}, "topical": {}, "transdermal": {},
	"transmucosal": {}, "transplacental": {}, "transtracheal": {},
	"transtympanic": {}, "treatment": {}, "troches": {}, "ureteral": {},
	"urethral": {}, "vaginal": {}, "%": {}, "mg": {}, "kg": {},
	"mg/day": {}, "oral": {}, "suspension": {}, "fixed": {},
	"combination": {}, "drops": {},
}

var (
	punctuation  = regexp.MustCompile(`"|'|mg/day|,|•|™|®|(?i:oral)\b|(?i:IV)\b`)
	alpha        = regexp.MustCompile(`α`)
	muVariants   = regexp.MustCompile(`[µμ]`)
	percentToken = regexp.MustCompile(`[-+]?\d*\.?\d*%`)
	decimalToken = regexp.MustCompile(`[-+]?\d*\.\d*`)
)

// extractors reduce the working string to a captured substring. They are
// tried in order; a matching pattern replaces the string with its capture
// and the remaining patterns still get a chance to reduce it further.
var extractors = []*regexp.Regexp{
	// comparator prefix: "Comparator: Drug X" -> "Drug X"
	regexp.MustCompile(`Comparator: (.*)`),
	// trailing dosage with unit: "Drug X 5mg" -> "Drug X"
	regexp.MustCompile(`^(.*?)(?:(?:/\d)|(?: \d)|(?:,(?:.*)\d)).*?(?:mg|kg|μg|mcg)(?:.*?)$`),
	// leading percentage: "5% Drug X" -> "Drug X"
	regexp.MustCompile(`[-+]?\d*\.?\d*%(?: )?(.*?)$`),
	// leading dosage: "5mg Drug X" -> " Drug X"
	regexp.MustCompile(`^\d.*(?:mg|kg|μg|mcg|µg)(.*?)$`),
	// parenthetical: "Drug X (brand)" -> "Drug X "
	regexp.MustCompile(`^(.*?)\(.*?\).*$`),
	// bracket: "Drug X [brand]" -> "Drug X "
	regexp.MustCompile(`^(.*?)\[.*?\].*$`),
}

// Clean normalizes a raw intervention name. Pure, deterministic and
// idempotent; an empty result is valid and propagates as an empty string.
func Clean(raw string) string {
	s := dropStopwords(raw)
	s = strings.TrimSpace(punctuation.ReplaceAllString(s, ""))
	s = strings.TrimSpace(alpha.ReplaceAllString(s, "alfa"))
	s = strings.TrimSpace(muVariants.ReplaceAllString(s, "μ"))
	s = strings.TrimSpace(percentToken.ReplaceAllString(s, ""))
	s = strings.TrimSpace(decimalToken.ReplaceAllString(s, ""))

	for _, re := range extractors {
		if m := re.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
	}
	return strings.TrimSpace(s)
}

// CleanAll cleans every name in a list, preserving order.
func CleanAll(names []string) []string {
	cleaned := make([]string, len(names))
	for i, name := range names {
		cleaned[i] = Clean(name)
	}
	return cleaned
}

// dropStopwords removes whole words that appear in the stoplist,
// case-insensitively, keeping the rest in order.
func dropStopwords(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, word := range words {
		if _, drop := stopwords[strings.ToLower(word)]; !drop {
			kept = append(kept, word)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// ContainsPlacebo reports whether any of the names marks a placebo arm.
func ContainsPlacebo(names []string) bool {
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), "placebo") {
			return true
		}
	}
	return false
}
