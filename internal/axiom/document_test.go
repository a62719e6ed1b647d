package axiom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDocument_FlatList(t *testing.T) {
	got, err := ParseDocument([]byte(`[
		{"statement": "Any two distinct points determine a unique line."},
		{"statement": "  There exist at least three non-collinear points.  "}
	]`))
	require.NoError(t, err)
	require.Equal(t, []string{
		"Any two distinct points determine a unique line.",
		"There exist at least three non-collinear points.",
	}, got)
}

func TestParseDocument_Groups(t *testing.T) {
	got, err := ParseDocument([]byte(`[
		{"name": "incidence", "axioms": [{"statement": "I1"}, {"statement": "I2"}]},
		{"name": "order", "axioms": [{"statement": "O1"}]}
	]`))
	require.NoError(t, err)
	require.Equal(t, []string{"I1", "I2", "O1"}, got)
}

func TestParseDocument_Wrappers(t *testing.T) {
	got, err := ParseDocument([]byte(`{"axioms": [{"statement": "A"}]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, got)

	got, err = ParseDocument([]byte(`{"groups": [{"axioms": [{"statement": "B"}]}]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, got)
}

func TestParseDocument_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"not json":        `hello`,
		"scalar":          `42`,
		"empty list":      `[]`,
		"no statement":    `[{"text": "x"}]`,
		"blank statement": `[{"statement": "   "}]`,
		"group no stmt":   `[{"axioms": [{"text": "x"}]}]`,
		"bad type":        `[{"statement": 3}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument([]byte(doc))
			require.Error(t, err)
		})
	}
}
