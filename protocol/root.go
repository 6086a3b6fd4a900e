package protocol

import (
	"fmt"
	"io"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden at build time with -ldflags "-X .../protocol.Version=..."
var Version = "dev"

var (
	configPaths  []string
	catalogPath  string
	statePath    string
	discover     bool
	about        bool
	format       string
	logLevel     string
	logDir       string
	artifactsDir string

	commands  = []*cobra.Command{}
	connector *abstract.AbstractDriver
)

// RootCmd runs a sync unless --about or --discover is passed
var RootCmd = &cobra.Command{
	Use:     constants.TapName,
	Short:   constants.TapDescription,
	Version: Version,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// logger reads LOG_LEVEL and LOG_FOLDER
		viper.Set(constants.LogLevel, logLevel)
		viper.Set(constants.LogFolder, logDir)
		viper.Set(constants.ArtifactsFolder, artifactsDir)
		logger.Init()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
				return fmt.Errorf("'%s' is an invalid command. Use '%s --help' to display usage guide", args[0], constants.TapName)
			}
		}

		switch {
		case about:
			return runAbout(cmd.OutOrStdout(), format)
		case discover:
			return runDiscover(cmd.Context(), cmd.OutOrStdout())
		default:
			return runSync(cmd.Context(), cmd.OutOrStdout())
		}
	},
}

func CreateRootCommand(driver abstract.DriverInterface) *cobra.Command {
	RootCmd.AddCommand(commands...)
	connector = abstract.NewAbstractDriver(driver)

	return RootCmd
}

// loadSettings resolves every --config source; it never touches the network
func loadSettings() (config.Settings, error) {
	settings, err := config.NewLoader(configPaths...).Load()
	if err != nil {
		return config.Settings{}, err
	}

	logger.Debugf("resolved settings: %v", settings.Redacted())
	return settings, nil
}

func writeJSON(out io.Writer, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func init() {
	commands = append(commands, aboutCmd, discoverCmd, syncCmd, checkCmd)
	RootCmd.PersistentFlags().StringArrayVarP(&configPaths, "config", "", nil, "Configuration file (JSON or YAML), may be repeated. Pass ENV to also read settings from .env")
	RootCmd.PersistentFlags().BoolVarP(&discover, "discover", "", false, "Print the catalog of available streams")
	RootCmd.PersistentFlags().BoolVarP(&about, "about", "", false, "Print tap information and the settings schema")
	RootCmd.PersistentFlags().StringVarP(&format, "format", "", "json", "Format of --about output: json or markdown")
	RootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "", "", "(Optional) Catalog selecting the streams to sync")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) State to resume the sync from")
	RootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVarP(&logDir, "log-dir", "", "", "(Optional) Folder for rotated log files")
	RootCmd.PersistentFlags().StringVarP(&artifactsDir, "artifacts-dir", "", "", "(Optional) Folder for catalog and state artifacts")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
