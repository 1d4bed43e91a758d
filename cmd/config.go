package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configBaseName = "goclade"
	envPrefix      = "GOCLADE"

	treeKey             = "tree"
	metadataKey         = "metadata"
	tipColKey           = "tip-col"
	cladeColsKey        = "clade-cols"
	ntMutsKey           = "nt-muts"
	aaMutsKey           = "aa-muts"
	excludeKey          = "exclude"
	noncomprehensiveKey = "noncomprehensive"
	skipSingletonsKey   = "skip-singletons"
	outfileKey          = "outfile"
	threadsKey          = "threads"
	summaryKey          = "summary"
	skippedKey          = "skipped"

	logFilenameKey   = "log.filename"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultOutfile       = "clades.tsv"
	defaultThreads       = 1
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(outfileKey, defaultOutfile)
	viper.SetDefault(threadsKey, defaultThreads)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// initConfig reads the config file. An explicitly named file must exist; the
// default ./goclade.yaml is optional.
func initConfig(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading --config %s", path)
		}
		return nil
	}

	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "reading config")
	}
	return nil
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// syncFlagFromConfig copies a value that came from the config file or the
// environment back onto an unset flag, so that gfio reports the right value
// alongside the flag's name
func syncFlagFromConfig(flags *pflag.FlagSet, name, key string) error {
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return nil
	}
	v := viper.GetString(key)
	if v == "" || v == flag.Value.String() {
		return nil
	}
	return flags.Set(name, v)
}

// extractConfig holds the settings of one extract run, after flags, env and
// the config file have been merged
type extractConfig struct {
	Tree             string
	Metadata         string
	TipCol           string
	CladeCols        []string
	NTMuts           string
	AAMuts           string
	Exclude          []string
	Noncomprehensive bool
	SkipSingletons   bool
	Outfile          string
	Threads          int
	Summary          bool
	Skipped          string
}

// splitList splits each of vals on commas, so that lists given as a single
// string in the environment or a config file come out the same as repeated flags
func splitList(vals []string) []string {
	list := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

func extractConfigFromViper() extractConfig {
	return extractConfig{
		Tree:             viper.GetString(treeKey),
		Metadata:         viper.GetString(metadataKey),
		TipCol:           viper.GetString(tipColKey),
		CladeCols:        splitList(viper.GetStringSlice(cladeColsKey)),
		NTMuts:           viper.GetString(ntMutsKey),
		AAMuts:           viper.GetString(aaMutsKey),
		Exclude:          splitList(viper.GetStringSlice(excludeKey)),
		Noncomprehensive: viper.GetBool(noncomprehensiveKey),
		SkipSingletons:   viper.GetBool(skipSingletonsKey),
		Outfile:          viper.GetString(outfileKey),
		Threads:          viper.GetInt(threadsKey),
		Summary:          viper.GetBool(summaryKey),
		Skipped:          viper.GetString(skippedKey),
	}
}

var (
	errNoTree      = errors.New("no --tree given")
	errNoMetadata  = errors.New("no --metadata given")
	errNoTipCol    = errors.New("no --tip-col given")
	errNoCladeCols = errors.New("no --clade-cols given")
	errNoNTMuts    = errors.New("no --nt-muts given")
	errBadThreads  = errors.New("--threads must be at least 1")
	errTwoStdin    = errors.New("only one input can be read from stdin")
)

func (c extractConfig) validate() error {
	switch {
	case c.Tree == "":
		return errNoTree
	case c.Metadata == "":
		return errNoMetadata
	case c.TipCol == "":
		return errNoTipCol
	case len(c.CladeCols) == 0:
		return errNoCladeCols
	case c.NTMuts == "":
		return errNoNTMuts
	case c.Threads < 1:
		return errBadThreads
	}

	stdin := 0
	for _, in := range []string{c.Tree, c.Metadata, c.NTMuts, c.AAMuts} {
		if in == "stdin" {
			stdin++
		}
	}
	if stdin > 1 {
		return errTwoStdin
	}

	return nil
}
