package cmd

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/virus-evolution/goclade/pkg/clades"
	"github.com/virus-evolution/goclade/pkg/gfio"
	"github.com/virus-evolution/goclade/pkg/metadata"
	"github.com/virus-evolution/goclade/pkg/mutations"
	"github.com/virus-evolution/goclade/pkg/newick"
	"github.com/virus-evolution/goclade/pkg/report"
)

var extractTree string
var extractMetadata string
var extractTipCol string
var extractCladeCols []string
var extractNTMuts string
var extractAAMuts string
var extractExclude []string
var extractNoncomprehensive bool
var extractSkipSingletons bool
var extractOutfile string
var extractThreads int
var extractSummary bool
var extractSkipped string

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractTree, treeKey, "t", "", "Tree with named internal nodes, in newick format")
	extractCmd.Flags().StringVarP(&extractMetadata, metadataKey, "m", "", "Metadata with a tip column and clade columns, csv (.csv) or tsv format")
	extractCmd.Flags().StringVarP(&extractTipCol, tipColKey, "", "", "Metadata column holding the tip names")
	extractCmd.Flags().StringSliceVarP(&extractCladeCols, cladeColsKey, "", nil, "Metadata column(s) holding clade labels, comma-separated")
	extractCmd.Flags().StringVarP(&extractNTMuts, ntMutsKey, "", "", "Nucleotide mutations per node, augur node-data json")
	extractCmd.Flags().StringVarP(&extractAAMuts, aaMutsKey, "", "", "Amino acid mutations per node, augur node-data json")
	extractCmd.Flags().StringSliceVarP(&extractExclude, excludeKey, "", nil, "Clade labels not to call, comma-separated")
	extractCmd.Flags().BoolVarP(&extractNoncomprehensive, noncomprehensiveKey, "n", false, "Accept tips with no metadata row")
	extractCmd.Flags().BoolVarP(&extractSkipSingletons, skipSingletonsKey, "s", false, "Skip clades with only one tip")
	extractCmd.Flags().StringVarP(&extractOutfile, outfileKey, "o", defaultOutfile, "Output to write")
	extractCmd.Flags().IntVarP(&extractThreads, threadsKey, "", defaultThreads, "Number of clades to resolve at once")
	extractCmd.Flags().BoolVarP(&extractSummary, summaryKey, "", false, "Print a table of every clade's outcome to stderr")
	extractCmd.Flags().StringVarP(&extractSkipped, skippedKey, "", "", "Write the skipped clades and why to this file, in yaml format")

	for _, key := range []string{treeKey, metadataKey, tipColKey, cladeColsKey, ntMutsKey, aaMutsKey, excludeKey,
		noncomprehensiveKey, skipSingletonsKey, outfileKey, threadsKey, summaryKey, skippedKey} {
		bindFlagToConfig(extractCmd.Flags().Lookup(key), key)
	}

	extractCmd.Flags().SortFlags = false
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Find the mutations that define each monophyletic clade in a tree",
	Long: `Find the mutations that define each monophyletic clade in a tree

Example usage:

	goclade extract -t tree.nwk -m metadata.tsv --tip-col strain --clade-cols clade_membership \
		--nt-muts nt_muts.json --aa-muts aa_muts.json -o clades.tsv

--tree must name every node, as augur refine does, and --nt-muts / --aa-muts must annotate every
node (augur ancestral / augur translate output). Only metadata rows for tips in the tree are used.

For each label in each --clade-cols column, the clade's tips are found in --metadata and their
most recent common ancestor (MRCA) in --tree. The clade is skipped if any tip under the MRCA has a
different label in the same column (not monophyletic), or if a tip under the MRCA has no metadata
row and --noncomprehensive was not given. The mutations on the branch leading to the MRCA are then
checked against every tip outside the clade: if an outside tip carries all of them, mutations from
the MRCA's ancestors that the outside tip lacks are added, walking towards the root. If this fails
the clade is skipped (not unique). Amino acid mutations are reported from the MRCA as they are.

A clade with one tip uses that tip as its MRCA, unless --skip-singletons is given.

--outfile is a tsv with the columns clade, gene, site and alt, one row per mutation. gene is "nuc"
for nucleotide mutations and the protein name for amino acid mutations.

Any option can also be set in a yaml config file (--config, or ./goclade.yaml) using the option's
long name as the key, or in the environment, e.g. GOCLADE_TIP_COL=strain.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := extractConfigFromViper()
		if err := cfg.validate(); err != nil {
			return err
		}
		for _, name := range []string{treeKey, metadataKey, ntMutsKey, aaMutsKey, outfileKey, skippedKey} {
			if err := syncFlagFromConfig(cmd.Flags(), name, name); err != nil {
				return err
			}
		}
		return runExtract(cmd.Context(), cmd.Flags(), cfg, cmd.ErrOrStderr())
	},
}

func readTree(flags *pflag.FlagSet) (*newick.Tree, error) {
	f, err := gfio.OpenIn(*flags.Lookup(treeKey))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := newick.ReadTree(f)
	return t, errors.Wrap(err, "reading --tree")
}

func readMetadata(flags *pflag.FlagSet, cfg extractConfig) (*metadata.Table, error) {
	f, err := gfio.OpenIn(*flags.Lookup(metadataKey))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	table, err := metadata.ReadTable(f, metadata.DelimiterFor(cfg.Metadata), cfg.TipCol)
	return table, errors.Wrap(err, "reading --metadata")
}

func readIndex(flags *pflag.FlagSet, cfg extractConfig) (*mutations.Index, error) {
	nt, err := gfio.OpenIn(*flags.Lookup(ntMutsKey))
	if err != nil {
		return nil, err
	}
	defer nt.Close()

	var aa io.Reader
	if cfg.AAMuts != "" {
		f, err := gfio.OpenIn(*flags.Lookup(aaMutsKey))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		aa = f
	}

	return mutations.ReadIndex(nt, aa)
}

func runExtract(ctx context.Context, flags *pflag.FlagSet, cfg extractConfig, stderr io.Writer) error {
	tree, err := readTree(flags)
	if err != nil {
		return err
	}
	logger.Debug("read tree", zap.Int("nodes", tree.Len()), zap.Int("tips", len(tree.Tips())))

	table, err := readMetadata(flags, cfg)
	if err != nil {
		return err
	}
	logger.Debug("read metadata", zap.Int("rows", table.Len()), zap.String("tip column", table.TipColumn()))

	index, err := readIndex(flags, cfg)
	if err != nil {
		return err
	}
	logger.Debug("read mutations", zap.Bool("aa", index.HasAA()))

	opts := clades.Options{
		CladeColumns:     cfg.CladeCols,
		Exclude:          cfg.Exclude,
		Noncomprehensive: cfg.Noncomprehensive,
		SkipSingletons:   cfg.SkipSingletons,
		Threads:          cfg.Threads,
	}
	results, err := clades.Extract(ctx, tree, index, table, opts, zapObserver{log: logger})
	if err != nil {
		return err
	}

	if err = writeClades(flags, results); err != nil {
		return err
	}

	if cfg.Summary {
		report.WriteSummary(stderr, results)
	}

	if cfg.Skipped != "" {
		if err = writeSkipped(flags, results); err != nil {
			return err
		}
	}

	logger.Info("done",
		zap.Int("clades", len(results)),
		zap.Int("called", len(clades.Accepted(results))),
		zap.String("outfile", cfg.Outfile))

	return nil
}

// closeOut closes f unless it is stdout. A close error is kept in err if
// nothing failed before it.
func closeOut(f *os.File, err *error) {
	if f == os.Stdout {
		return
	}
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = errors.Wrapf(cerr, "couldn't close %s", f.Name())
	}
}

func writeClades(flags *pflag.FlagSet, results []clades.Result) (err error) {
	out, err := gfio.OpenOut(*flags.Lookup(outfileKey))
	if err != nil {
		return err
	}
	defer closeOut(out, &err)

	return report.WriteClades(out, results)
}

func writeSkipped(flags *pflag.FlagSet, results []clades.Result) (err error) {
	f, err := gfio.OpenOut(*flags.Lookup(skippedKey))
	if err != nil {
		return err
	}
	defer closeOut(f, &err)

	return report.WriteSkipped(f, results)
}
