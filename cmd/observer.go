package cmd

import (
	"go.uber.org/zap"

	"github.com/virus-evolution/goclade/pkg/clades"
)

// zapObserver logs clade resolution as it happens
type zapObserver struct {
	log *zap.Logger
}

func (o zapObserver) MRCA(column, clade, node string) {
	o.log.Info("found MRCA", zap.String("column", column), zap.String("clade", clade), zap.String("node", node))
}

func (o zapObserver) Resolved(r clades.Result) {
	aa := 0
	for _, pm := range r.AA {
		aa += len(pm.Muts)
	}
	o.log.Debug("called clade",
		zap.String("column", r.Column),
		zap.String("clade", r.Clade),
		zap.String("node", r.Node),
		zap.Strings("nt", r.NT),
		zap.Int("aa", aa))
}

func (o zapObserver) Skipped(r clades.Result) {
	fields := []zap.Field{zap.String("column", r.Column), zap.String("clade", r.Clade)}
	switch r.Skip {
	case clades.Singleton:
		o.log.Warn("singleton clade with one tip - skipping", append(fields, zap.Strings("tip", r.Detail))...)
	case clades.NonMonophyletic:
		o.log.Warn("clade is not monophyletic - skipping", append(fields, zap.Strings("conflicts", r.Detail))...)
	case clades.NonUnique:
		o.log.Warn("clade mutations are not unique - skipping", append(fields, zap.Strings("failing_tips", r.Detail))...)
	case clades.MissingMetadata:
		o.log.Warn("tips under the clade MRCA have no metadata - skipping", append(fields, zap.Strings("missing_tips", r.Detail))...)
	default:
		o.log.Warn("skipping clade", append(fields, zap.String("reason", string(r.Skip)))...)
	}
}
