package protocol

import (
	"context"
	"errors"
	"io"

	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/spf13/cobra"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print the catalog of available streams",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDiscover(cmd.Context(), cmd.OutOrStdout())
	},
}

func runDiscover(ctx context.Context, out io.Writer) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if err := connector.Setup(ctx, settings); err != nil {
		return err
	}
	defer connector.Close()

	catalog := connector.Discover()
	if len(catalog.Streams) == 0 {
		return errors.New("no streams found in connector")
	}

	logger.LogArtifact(catalog, "catalog")
	return writeJSON(out, catalog)
}
