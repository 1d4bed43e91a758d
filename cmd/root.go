package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var configFile string
var verbose bool
var logFile string

var logger = zap.NewNop()

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Config file in yaml format (default ./"+configBaseName+".yaml, if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVarP(&logFile, "log-file", "", "", "Also write logs to this file, rotating it as it grows")

	bindFlagToConfig(rootCmd.PersistentFlags().Lookup("verbose"), logVerboseKey)
	bindFlagToConfig(rootCmd.PersistentFlags().Lookup("log-file"), logFilenameKey)
}

var (
	rootCmd = &cobra.Command{
		Use:     "goclade",
		Short:   "clade-defining mutations from annotated phylogenies",
		Long:    `clade-defining mutations from annotated phylogenies`,
		Version: "0.1.0",

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(configFile); err != nil {
				return err
			}
			l, err := newLogger(os.Stderr, viper.GetBool(logVerboseKey), viper.GetString(logFilenameKey))
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
)

// Execute executes the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
