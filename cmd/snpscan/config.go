package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the settings snpscan reads; set and get reject anything
// else.
var configKeys = map[string]string{
	"fetch.timeout":   "per-request timeout, e.g. 30s",
	"fetch.retries":   "retries on transient fetch failure",
	"fetch.rate":      "max annotation requests per second",
	"report.pdf_path": "PDF report destination",
	"scan.workers":    "concurrent annotation fetches",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage snpscan configuration",
		Long: "Show, get, or set configuration values. Config is stored in ~/.snpscan.yaml.\n\n" +
			"Keys:\n" + configKeyHelp(),
		Example: `  snpscan config                      # show all config
  snpscan config set fetch.rate 2     # throttle annotation requests
  snpscan config get fetch.timeout    # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.snpscan.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	parsed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, parsed)

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".snpscan.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %v in %s\n", key, parsed, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if _, ok := configKeys[key]; !ok {
		return unknownKeyError(key)
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}

// parseConfigValue validates a key against configKeys and converts its value
// to the type the scan pipeline expects. Durations are stored in their
// canonical string form so the file stays readable.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "fetch.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a duration (try 30s)", key, value)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s: must be positive", key)
		}
		return d.String(), nil
	case "fetch.retries", "scan.workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: %q is not a non-negative integer", key, value)
		}
		return n, nil
	case "fetch.rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("%s: %q is not a positive number", key, value)
		}
		return f, nil
	case "report.pdf_path":
		return value, nil
	}
	return nil, unknownKeyError(key)
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(sortedConfigKeys(), ", "))
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func configKeyHelp() string {
	var b strings.Builder
	for _, k := range sortedConfigKeys() {
		fmt.Fprintf(&b, "  %-16s %s\n", k, configKeys[k])
	}
	return b.String()
}
