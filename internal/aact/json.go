// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeStringArray parses a JSON array of strings as produced by the
// snapshot query's json_agg columns. Empty input decodes to nil: a study
// without conditions simply has none.
func DecodeStringArray(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding string array: %w", err)
	}
	return out, nil
}

func decodeStringArray(s string) ([]string, error) {
	return DecodeStringArray(s)
}

// Reference is one study reference: its type and citation text.
type Reference struct {
	Type     string
	Citation string
}

// DecodeRefs parses the refs aggregate, a JSON array of
// [reference_type, citation] pairs.
func DecodeRefs(s string) ([]Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var raw [][]string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("decoding refs: %w", err)
	}
	refs := make([]Reference, 0, len(raw))
	for _, pair := range raw {
		ref := Reference{}
		if len(pair) > 0 {
			ref.Type = pair[0]
		}
		if len(pair) > 1 {
			ref.Citation = pair[1]
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
