/*
Package gfio provides io functionality, including to/from stdin/stdout,
transparent decompression of gzipped inputs, and helpful error messages
when used in combination with bad filepaths from commandline options
*/
package gfio

import (
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

func flagString(flag pflag.Flag) string {
	switch len(flag.Shorthand) {
	case 0:
		return "--" + flag.Name
	default:
		return "-" + flag.Shorthand + " / --" + flag.Name
	}
}

func parseInErr(err error, flagString string) error {
	switch x := err.(type) {
	case *fs.PathError:
		return errors.New(x.Op + " " + flagString + " " + x.Path + ": " + x.Err.Error())
	default:
		return err
	}
}

// gzipFile closes both the decompressor and the file underneath it
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	gerr := g.Reader.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gerr
}

// OpenIn opens the file named by flag's value for reading, or returns stdin
// if the value is "stdin". Files whose name ends in .gz are decompressed.
func OpenIn(flag pflag.Flag) (io.ReadCloser, error) {
	inFile := flag.Value.String()

	if inFile == "stdin" {
		return os.Stdin, nil
	}

	f, err := os.Open(inFile)
	if err != nil {
		return nil, parseInErr(err, flagString(flag))
	}

	if !strings.HasSuffix(inFile, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "%s %s", flagString(flag), inFile)
	}

	return gzipFile{Reader: gz, f: f}, nil
}

// OpenOut creates the file named by flag's value, or returns stdout if the
// value is "stdout"
func OpenOut(flag pflag.Flag) (*os.File, error) {
	outFile := flag.Value.String()

	if outFile == "stdout" {
		return os.Stdout, nil
	}

	f, err := os.Create(outFile)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", flagString(flag))
	}

	return f, nil
}
