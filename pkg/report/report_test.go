package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/virus-evolution/goclade/pkg/clades"
	"github.com/virus-evolution/goclade/pkg/mutations"
)

func TestParseMutation(t *testing.T) {
	cases := []struct {
		mut       string
		site, alt string
		ok        bool
	}{
		{"C241T", "241", "T", true},
		{"A1000G", "1000", "G", true},
		{"D614G", "614", "G", true},
		{"A1000-", "1000", "-", true},
		{"S:D614G", "614", "G", true},
		{"AT100GC", "100", "GC", true},
		{"241T", "", "", false},
		{"C241", "", "", false},
		{"", "", "", false},
		{"CT", "", "", false},
	}
	for _, c := range cases {
		site, alt, ok := ParseMutation(c.mut)
		assert.Equal(t, c.ok, ok, c.mut)
		assert.Equal(t, c.site, site, c.mut)
		assert.Equal(t, c.alt, alt, c.mut)
	}
}

func TestWriteClades(t *testing.T) {
	results := []clades.Result{
		{Column: "clade", Clade: "X", Node: "N2", NT: mutations.NewSet("C241T", "A1000G").Sorted()},
	}

	out := new(bytes.Buffer)
	require.NoError(t, WriteClades(out, results))

	if out.String() != `clade	gene	site	alt
X	nuc	1000	G
X	nuc	241	T
` {
		t.Errorf("problem in TestWriteClades():\n%s", out.String())
	}
}

func TestWriteCladesAAAndMalformed(t *testing.T) {
	results := []clades.Result{
		{
			Column: "clade", Clade: "20I", Node: "N7",
			NT: []string{"C241T", "241T", "G28881-"},
			AA: []mutations.ProteinMutations{
				{Protein: "S", Muts: []string{"N501Y", "D614G"}},
				{Protein: "ORF1a", Muts: []string{"T1001I", "bad"}},
				{Protein: "N", Muts: []string{}},
			},
		},
		{Column: "clade", Clade: "20J", Skip: clades.NonUnique, Detail: []string{"A"}},
	}

	out := new(bytes.Buffer)
	require.NoError(t, WriteClades(out, results))

	if out.String() != `clade	gene	site	alt
20I	nuc	241	T
20I	nuc	28881	-
20I	S	501	Y
20I	S	614	G
20I	ORF1a	1001	I
` {
		t.Errorf("problem in TestWriteCladesAAAndMalformed():\n%s", out.String())
	}
}

func TestWriteCladesEmpty(t *testing.T) {
	out := new(bytes.Buffer)
	require.NoError(t, WriteClades(out, nil))
	assert.Equal(t, "clade\tgene\tsite\talt\n", out.String())
}

var summaryResults = []clades.Result{
	{Column: "clade", Clade: "X", Node: "N2", NT: []string{"C241T"}, AA: []mutations.ProteinMutations{{Protein: "S", Muts: []string{"D614G", "N501Y"}}}},
	{Column: "clade", Clade: "Y", Skip: clades.NonMonophyletic, Detail: []string{"Z"}},
	{Column: "lineage", Clade: "B.1", Skip: clades.Singleton, Detail: []string{"A"}},
}

func TestWriteSummary(t *testing.T) {
	out := new(bytes.Buffer)
	WriteSummary(out, summaryResults)

	s := out.String()
	assert.Contains(t, s, "called")
	assert.Contains(t, s, "N2")
	assert.Contains(t, s, "non_monophyletic")
	assert.Contains(t, s, "singleton")
	assert.Contains(t, s, "B.1")
}

func TestDetailString(t *testing.T) {
	assert.Equal(t, "a,b", detailString([]string{"a", "b"}))
	assert.Equal(t, "1,2,3,4,5,... (7 total)", detailString([]string{"1", "2", "3", "4", "5", "6", "7"}))
	assert.Equal(t, "", detailString(nil))
}

func TestWriteSkipped(t *testing.T) {
	out := new(bytes.Buffer)
	require.NoError(t, WriteSkipped(out, summaryResults))

	var got []skippedClade
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []skippedClade{
		{Column: "clade", Clade: "Y", Reason: "non_monophyletic", Detail: []string{"Z"}},
		{Column: "lineage", Clade: "B.1", Reason: "singleton", Detail: []string{"A"}},
	}, got)
	assert.NotContains(t, out.String(), "X")
}
