package clades

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/virus-evolution/goclade/pkg/metadata"
	"github.com/virus-evolution/goclade/pkg/mutations"
	"github.com/virus-evolution/goclade/pkg/newick"
)

// Options controls which clades are resolved and how
type Options struct {
	CladeColumns     []string // metadata columns holding clade labels, processed in this order
	Exclude          []string // clade labels never to resolve
	Noncomprehensive bool     // tips under an MRCA may be absent from the metadata
	SkipSingletons   bool     // skip clades with one tip instead of using the tip itself
	Threads          int      // number of clades to resolve at once
}

type job struct {
	column string
	clade  string
}

// Extract resolves every clade label in every column of opts.CladeColumns.
// Labels within a column are processed in sorted order. The results, called
// and skipped, are returned in that order regardless of opts.Threads.
func Extract(ctx context.Context, t *newick.Tree, ix *mutations.Index, table *metadata.Table, opts Options, obs Observer) ([]Result, error) {
	r, err := NewResolver(t, ix, table, opts, obs)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, e := range opts.Exclude {
		exclude[e] = true
	}

	jobs := make([]job, 0)
	for _, col := range opts.CladeColumns {
		labels, err := r.Table().Labels(col, exclude)
		if err != nil {
			return nil, err
		}
		for _, label := range labels {
			jobs = append(jobs, job{column: col, clade: label})
		}
	}

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Resolve(j.column, j.clade)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
