package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()

	tree := writeFile(t, dir, "tree.nwk", "((A:1,B:1)N2:1,(C:1,D:1,E:1)N3:1)N1;\n")
	meta := writeFile(t, dir, "metadata.tsv", "strain\tclade\nA\tX\nB\tX\nC\tY\nD\tY\nE\tZ\nQ\tX\n")
	nt := writeFile(t, dir, "nt_muts.json", `{"nodes": {
		"N1": {"muts": []}, "N2": {"muts": ["C241T"]}, "N3": {"muts": ["A1000G"]},
		"A": {"muts": []}, "B": {"muts": []}, "C": {"muts": []}, "D": {"muts": []}, "E": {"muts": ["G9T"]}}}`)
	aa := writeFile(t, dir, "aa_muts.json", `{"nodes": {
		"N1": {"aa_muts": {}}, "N2": {"aa_muts": {"S": ["D614G"]}}, "N3": {"aa_muts": {}},
		"A": {"aa_muts": {}}, "B": {"aa_muts": {}}, "C": {"aa_muts": {}}, "D": {"aa_muts": {}}, "E": {"aa_muts": {}}}}`)
	out := filepath.Join(dir, "clades.tsv")
	skipped := filepath.Join(dir, "skipped.yaml")

	stderr := new(bytes.Buffer)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs([]string{"extract",
		"-t", tree, "-m", meta, "--tip-col", "strain", "--clade-cols", "clade",
		"--nt-muts", nt, "--aa-muts", aa, "-o", out, "--skipped", skipped, "--summary", "--threads", "2"})
	require.NoError(t, rootCmd.Execute())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	if string(b) != `clade	gene	site	alt
X	nuc	241	T
X	S	614	G
Z	nuc	9	T
` {
		t.Errorf("problem in TestExtractCommand():\n%s", string(b))
	}

	b, err = os.ReadFile(skipped)
	require.NoError(t, err)
	assert.Contains(t, string(b), "non_monophyletic")
	assert.Contains(t, string(b), "- Z")

	assert.Contains(t, stderr.String(), "called")
}

func TestValidate(t *testing.T) {
	good := extractConfig{
		Tree: "tree.nwk", Metadata: "metadata.tsv", TipCol: "strain",
		CladeCols: []string{"clade"}, NTMuts: "nt_muts.json", Threads: 1,
	}
	require.NoError(t, good.validate())

	cases := map[error]func(c *extractConfig){
		errNoTree:      func(c *extractConfig) { c.Tree = "" },
		errNoMetadata:  func(c *extractConfig) { c.Metadata = "" },
		errNoTipCol:    func(c *extractConfig) { c.TipCol = "" },
		errNoCladeCols: func(c *extractConfig) { c.CladeCols = nil },
		errNoNTMuts:    func(c *extractConfig) { c.NTMuts = "" },
		errBadThreads:  func(c *extractConfig) { c.Threads = 0 },
		errTwoStdin:    func(c *extractConfig) { c.Tree = "stdin"; c.NTMuts = "stdin" },
	}
	for want, mutate := range cases {
		c := good
		mutate(&c)
		assert.Equal(t, want, c.validate())
	}
}

func TestInitConfigMissingFile(t *testing.T) {
	err := initConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewLoggerFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "goclade.log")
	console := new(bytes.Buffer)

	l, err := newLogger(console, false, logPath)
	require.NoError(t, err)
	l.Info("hello")
	l.Debug("hidden")
	_ = l.Sync()

	assert.Contains(t, console.String(), "hello")
	assert.NotContains(t, console.String(), "hidden")

	b, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"clade", "lineage"}, splitList([]string{"clade,lineage"}))
	assert.Equal(t, []string{"A", "B", "C"}, splitList([]string{"A, B", "C", ""}))
	assert.Empty(t, splitList(nil))
}

func TestExtractConfigFromEnvLists(t *testing.T) {
	for _, key := range []string{cladeColsKey, excludeKey} {
		f := extractCmd.Flags().Lookup(key)
		changed := f.Changed
		f.Changed = false
		t.Cleanup(func() { f.Changed = changed })
	}

	t.Setenv("GOCLADE_CLADE_COLS", "clade_membership,lineage")
	t.Setenv("GOCLADE_EXCLUDE", "A, B")

	cfg := extractConfigFromViper()
	assert.Equal(t, []string{"clade_membership", "lineage"}, cfg.CladeCols)
	assert.Equal(t, []string{"A", "B"}, cfg.Exclude)
}

func TestCloseOut(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.tsv"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = nil
	closeOut(f, &err)
	assert.Error(t, err)

	first := errors.New("write failed")
	err = first
	closeOut(f, &err)
	assert.Equal(t, first, err)

	err = nil
	closeOut(os.Stdout, &err)
	assert.NoError(t, err)
	_, werr := os.Stdout.Write(nil)
	assert.NoError(t, werr)
}
