package protocol

import (
	"context"
	"io"

	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and the connection to HubSpot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCheck(cmd.Context(), cmd.OutOrStdout())
	},
}

func runCheck(ctx context.Context, out io.Writer) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	err = func() error {
		if err := connector.Setup(ctx, settings); err != nil {
			return err
		}
		defer connector.Close()

		// a passed catalog is validated against the streams of the connector
		if catalogPath != "" {
			catalog := &types.Catalog{}
			if err := utils.UnmarshalFile(catalogPath, catalog); err != nil {
				return err
			}
			if _, err := connector.Configure(catalog); err != nil {
				return err
			}
		}

		return connector.Check(ctx)
	}()

	status := map[string]any{"status": "SUCCEEDED"}
	if err != nil {
		logger.Errorf("connection check failed: %s", err)
		status = map[string]any{"status": "FAILED", "message": err.Error()}
	}
	if writeErr := writeJSON(out, map[string]any{"connectionStatus": status}); writeErr != nil {
		return writeErr
	}

	return err
}
