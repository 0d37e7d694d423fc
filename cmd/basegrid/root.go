// Root command for the basegrid CLI.
package main

import (
	"flag"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basegrid/internal/paths"
	"github.com/mesh-intelligence/basegrid/pkg/basegrid"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
)

// appConfig is loaded from config.yaml by PersistentPreRunE so all
// subcommands can use it.
var appConfig = types.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:           "basegrid",
	Short:         "basegrid is a terminal client for bases, tables and records",
	Version:       basegrid.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog reads its flags from flag.CommandLine, which cobra merged
		// into the persistent set; mark it parsed.
		if err := flag.CommandLine.Parse(nil); err != nil {
			return err
		}
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		configDir, err := resolveConfigDir()
		if err != nil {
			return sysErr(err)
		}
		v, err := loadConfig(configDir)
		if err != nil {
			return sysErr(err)
		}
		appConfig = configFromViper(v)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir/basegrid)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "field cache directory (default: platform cache dir/basegrid)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(basesCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)
}

// resolveDataDir returns the cache directory:
// --data-dir flag > config.yaml data_dir > BASEGRID_DATA_DIR > platform default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, appConfig.DataDir)
}

// resolveConfigDir returns the configuration directory:
// --config-dir flag > BASEGRID_CONFIG_DIR > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
