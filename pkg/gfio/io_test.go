package gfio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCmd() *cobra.Command {
	var (
		Cmd = &cobra.Command{
			Use:     "test",
			Short:   "test",
			Long:    `test`,
			Version: "1.0",
		}
	)

	var tree, nt, outfile string
	Cmd.PersistentFlags().StringVarP(&tree, "tree", "t", "stdin", "Tree in newick format")
	Cmd.PersistentFlags().StringVarP(&nt, "nt-muts", "", "", "Nucleotide mutations json")
	Cmd.PersistentFlags().StringVarP(&outfile, "outfile", "o", "stdout", "Output to write")
	return Cmd
}

func TestOpenIn(t *testing.T) {
	Cmd := testCmd()
	Cmd.PersistentFlags().Set("tree", "not/a/file.whatever")

	_, err := OpenIn(*Cmd.Flag("tree"))
	if err == nil || err.Error() != "open -t / --tree not/a/file.whatever: no such file or directory" {
		t.Error(err)
	}

	Cmd.PersistentFlags().Set("nt-muts", "not/a/file.json")
	_, err = OpenIn(*Cmd.Flag("nt-muts"))
	if err == nil || err.Error() != "open --nt-muts not/a/file.json: no such file or directory" {
		t.Error(err)
	}
}

func TestOpenInStdin(t *testing.T) {
	Cmd := testCmd()
	f, err := OpenIn(*Cmd.Flag("tree"))
	require.NoError(t, err)
	assert.Equal(t, os.Stdin, f)
}

func TestOpenInGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "tree.nwk")
	require.NoError(t, os.WriteFile(plain, []byte("(A,B)R;"), 0o644))

	zipped := filepath.Join(dir, "tree.nwk.gz")
	f, err := os.Create(zipped)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("(A,B)R;"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	Cmd := testCmd()
	for _, name := range []string{plain, zipped} {
		Cmd.PersistentFlags().Set("tree", name)
		r, err := OpenIn(*Cmd.Flag("tree"))
		require.NoError(t, err)
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "(A,B)R;", string(b), name)
		require.NoError(t, r.Close())
	}

	Cmd.PersistentFlags().Set("tree", plain+".gz.notreally.gz")
	require.NoError(t, os.WriteFile(plain+".gz.notreally.gz", []byte("not gzip"), 0o644))
	_, err = OpenIn(*Cmd.Flag("tree"))
	assert.Error(t, err)
}

func TestOpenOut(t *testing.T) {
	Cmd := testCmd()
	f, err := OpenOut(*Cmd.Flag("outfile"))
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	out := filepath.Join(t.TempDir(), "clades.tsv")
	Cmd.PersistentFlags().Set("outfile", out)
	f, err = OpenOut(*Cmd.Flag("outfile"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(out)
	assert.NoError(t, err)
}
