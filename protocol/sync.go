package protocol

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/datazip-inc/tap-hubspot/destination"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/spf13/cobra"
)

// syncCmd represents the sync command, also run by the bare root command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extract the selected streams as Singer messages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context(), cmd.OutOrStdout())
	},
}

func runSync(ctx context.Context, out io.Writer) error {
	// configuration errors stop the run before any request is made
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	var catalog *types.Catalog
	if catalogPath != "" {
		catalog = &types.Catalog{}
		if err := utils.UnmarshalFile(catalogPath, catalog); err != nil {
			return err
		}
	}

	state := types.NewState()
	if statePath != "" {
		if err := utils.UnmarshalFile(statePath, state); err != nil {
			return err
		}
	}

	syncID, err := settings.Fingerprint()
	if err != nil {
		return fmt.Errorf("failed to fingerprint settings: %s", err)
	}
	runID := utils.ULID()
	runLogger := logger.With("run_id", runID)
	runLogger.Info().Uint64("sync_id", syncID).Msgf("starting sync of %s", connector.Type())

	connector.SetupState(state)
	streams, err := connector.Configure(catalog)
	if err != nil {
		return err
	}

	pool, err := destination.NewWriterPool(out,
		destination.WithFlattening(settings.FlatteningEnabled, settings.FlatteningMaxDepth),
		destination.WithStreamMaps(settings.StreamMaps),
	)
	if err != nil {
		return err
	}
	if err := pool.Prepare(streams...); err != nil {
		return err
	}

	if err := connector.Setup(ctx, settings); err != nil {
		return err
	}
	defer connector.Close()

	startTime := time.Now()
	if err := connector.Read(ctx, pool, streams); err != nil {
		return fmt.Errorf("error occurred while reading records: %s", err)
	}

	runLogger.Info().Int64("records", pool.SyncedRecords()).
		Msgf("sync completed in %s", time.Since(startTime).Round(time.Millisecond))
	return nil
}
