/*
Package report writes the clade-defining mutations found by package clades
as a flat tsv, and summaries of the called and skipped clades
*/
package report

import (
	"bufio"
	"io"
	"regexp"

	"github.com/virus-evolution/goclade/pkg/clades"
)

// mutationRegex captures the site and the alternative allele of a mutation
// code such as C241T, D614G or A1000-
var mutationRegex = regexp.MustCompile(`\D+(\d+)(\D+)`)

// ParseMutation returns the site and alt of a mutation code. ok is false if
// the code is malformed.
func ParseMutation(mut string) (site, alt string, ok bool) {
	m := mutationRegex.FindStringSubmatch(mut)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// WriteClades writes one row per mutation of each called result in results:
//
//	clade	gene	site	alt
//
// Nucleotide mutations have gene "nuc", amino acid mutations the name of their
// protein. Malformed mutation codes are left out.
func WriteClades(w io.Writer, results []clades.Result) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("clade\tgene\tsite\talt\n"); err != nil {
		return err
	}

	row := func(clade, gene, mut string) error {
		site, alt, ok := ParseMutation(mut)
		if !ok {
			return nil
		}
		_, err := bw.WriteString(clade + "\t" + gene + "\t" + site + "\t" + alt + "\n")
		return err
	}

	for _, r := range clades.Accepted(results) {
		for _, mut := range r.NT {
			if err := row(r.Clade, "nuc", mut); err != nil {
				return err
			}
		}
		for _, pm := range r.AA {
			for _, mut := range pm.Muts {
				if err := row(r.Clade, pm.Protein, mut); err != nil {
					return err
				}
			}
		}
	}

	return bw.Flush()
}
