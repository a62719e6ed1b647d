package axiom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Formatos aceitos:
//
//	[{"statement": "..."}, ...]
//	{"axioms": [{"statement": "..."}, ...]}
//	[{"name": "...", "axioms": [{"statement": "..."}]}, ...]
//	{"groups": [{"axioms": [...]}, ...]}

type entry struct {
	Statement *string `json:"statement"`
	Axioms    []entry `json:"axioms"`
}

type wrapper struct {
	Axioms []entry `json:"axioms"`
	Groups []entry `json:"groups"`
}

// ParseDocument extrai os enunciados, na ordem do documento.
func ParseDocument(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var entries []entry
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode axiom list: %w", err)
		}
	case '{':
		var w wrapper
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decode axiom document: %w", err)
		}
		entries = append(w.Axioms, w.Groups...)
	default:
		return nil, fmt.Errorf("unexpected document start %q", data[0])
	}

	var out []string
	for i, e := range entries {
		switch {
		case e.Statement != nil:
			s := strings.TrimSpace(*e.Statement)
			if s == "" {
				return nil, fmt.Errorf("entry %d: empty statement", i)
			}
			out = append(out, s)
		case len(e.Axioms) > 0:
			for j, a := range e.Axioms {
				if a.Statement == nil || strings.TrimSpace(*a.Statement) == "" {
					return nil, fmt.Errorf("group %d entry %d: missing statement", i, j)
				}
				out = append(out, strings.TrimSpace(*a.Statement))
			}
		default:
			return nil, fmt.Errorf("entry %d: neither statement nor axioms", i)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no axioms in document")
	}
	return out, nil
}
