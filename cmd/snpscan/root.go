package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// usageError marks command-line misuse (unknown flags, wrong argument
// counts) so main can exit 2 instead of 1.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional-args validator so its failures carry usage
// semantics.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "snpscan",
		Short: "Scan consumer genotyping raw data for ClinVar-pathogenic variants",
		Long: `snpscan cross-references the SNPs in a 23andMe or AncestryDNA raw-data
export against ClinVar annotations served by myvariant.info, keeps the
annotations compatible with your observed genotype, and reports the unique
set of diseases with a "Pathogenic" clinical significance.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug-level diagnostics")

	cmd.AddCommand(newScanCmd(&verbose))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// initConfig loads ~/.snpscan.yaml if present and sets defaults.
func initConfig() error {
	viper.SetConfigName(".snpscan")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.retries", 2)
	viper.SetDefault("fetch.rate", 4.0)
	viper.SetDefault("scan.workers", 1)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger builds the process-wide logger once, with one explicit level.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
