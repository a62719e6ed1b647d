package axiom

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultBaseURL hospeda os documentos padrão (<base>/<name>.json).
const DefaultBaseURL = "https://raw.githubusercontent.com/proofgpt/axioms/main"

// DefaultSets são os conjuntos conhecidos quando nada é configurado.
var DefaultSets = []string{"euclid", "hilbert", "tarski"}

// Registry mapeia o nome de um conjunto para a URL do documento.
type Registry struct {
	sets map[string]string
}

// NewRegistry monta o registro com os DefaultSets sob baseURL e aplica overrides
// (nome -> URL). Overrides também podem adicionar conjuntos novos.
func NewRegistry(baseURL string, overrides map[string]string) (*Registry, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	r := &Registry{sets: make(map[string]string, len(DefaultSets)+len(overrides))}
	for _, name := range DefaultSets {
		r.sets[name] = base + "/" + name + ".json"
	}
	for name, raw := range overrides {
		n := NormalizeName(name)
		if n == "" {
			return nil, fmt.Errorf("axiom set override with empty name")
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("axiom set %q: invalid url %q", n, raw)
		}
		r.sets[n] = u.String()
	}
	return r, nil
}

// NormalizeName aplica o casamento de nomes: sem espaços nas pontas e minúsculo.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup devolve a URL do conjunto ou ErrUnknownAxiomSet.
func (r *Registry) Lookup(name string) (string, error) {
	n := NormalizeName(name)
	if u, ok := r.sets[n]; ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAxiomSet, n)
}

// Names lista os conjuntos conhecidos em ordem.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sets))
	for n := range r.sets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ParseOverrides lê "name=url,name=url".
func ParseOverrides(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, u, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(u) == "" {
			return nil, fmt.Errorf("invalid axiom set entry %q (want name=url)", part)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(u)
	}
	return out, nil
}
