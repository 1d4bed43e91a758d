package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/virus-evolution/goclade/pkg/clades"
)

// maxDetail is the most detail entries shown per row of the summary table
const maxDetail = 5

func countAA(r clades.Result) int {
	n := 0
	for _, pm := range r.AA {
		n += len(pm.Muts)
	}
	return n
}

func detailString(detail []string) string {
	if len(detail) <= maxDetail {
		return strings.Join(detail, ",")
	}
	return strings.Join(detail[:maxDetail], ",") + ",... (" + strconv.Itoa(len(detail)) + " total)"
}

// WriteSummary writes a human-readable table with one row per result
func WriteSummary(w io.Writer, results []clades.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"column", "clade", "status", "node", "nt", "aa", "detail"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, r := range results {
		if r.OK() {
			table.Append([]string{r.Column, r.Clade, "called", r.Node, strconv.Itoa(len(r.NT)), strconv.Itoa(countAA(r)), ""})
			continue
		}
		table.Append([]string{r.Column, r.Clade, string(r.Skip), r.Node, "", "", detailString(r.Detail)})
	}

	table.Render()
}

type skippedClade struct {
	Column string   `yaml:"column"`
	Clade  string   `yaml:"clade"`
	Reason string   `yaml:"reason"`
	Detail []string `yaml:"detail,omitempty"`
}

// WriteSkipped writes the skipped results as a yaml list
func WriteSkipped(w io.Writer, results []clades.Result) error {
	skipped := make([]skippedClade, 0)
	for _, r := range results {
		if r.OK() {
			continue
		}
		skipped = append(skipped, skippedClade{Column: r.Column, Clade: r.Clade, Reason: string(r.Skip), Detail: r.Detail})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(skipped); err != nil {
		return err
	}
	return enc.Close()
}
