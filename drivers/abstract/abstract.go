package abstract

import (
	"context"
	"fmt"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
)

type AbstractDriver struct { //nolint:gosec,revive
	driver DriverInterface
	state  *types.State
}

func NewAbstractDriver(driver DriverInterface) *AbstractDriver {
	return &AbstractDriver{
		driver: driver,
		state:  types.NewState(),
	}
}

func (a *AbstractDriver) Type() string {
	return a.driver.Type()
}

func (a *AbstractDriver) Setup(ctx context.Context, settings config.Settings) error {
	return a.driver.Setup(ctx, settings)
}

func (a *AbstractDriver) Check(ctx context.Context) error {
	return a.driver.Check(ctx)
}

// Close releases driver resources such as idle HTTP connections
func (a *AbstractDriver) Close() {
	if closer, ok := a.driver.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Discover returns the catalog of every stream, all selected by default
func (a *AbstractDriver) Discover() *types.Catalog {
	return types.GetWrappedCatalog(a.driver.Streams())
}

// SetupState attaches the state read from --state; nil starts from scratch
func (a *AbstractDriver) SetupState(state *types.State) {
	if state == nil {
		state = types.NewState()
	}
	a.state = state
}

func (a *AbstractDriver) State() *types.State {
	return a.state
}

// Configure binds every driver stream to its catalog entry. Without a catalog all
// streams are selected; with one, streams missing from it are not.
func (a *AbstractDriver) Configure(catalog *types.Catalog) ([]*types.ConfiguredStream, error) {
	streams := a.driver.Streams()
	known := types.StreamsToMap(streams...)

	if catalog != nil {
		for _, entry := range catalog.Streams {
			if _, found := known[entry.TapStreamID]; !found {
				logger.Warnf("catalog stream %s is not provided by %s, skipping", entry.TapStreamID, a.driver.Type())
			}
		}
	}

	configured := make([]*types.ConfiguredStream, 0, len(streams))
	for _, stream := range streams {
		var entry *types.CatalogEntry
		if catalog != nil {
			found := false
			entry, found = catalog.Get(stream.ID())
			if !found {
				entry = &types.CatalogEntry{TapStreamID: stream.ID(), Stream: stream.Name}
			}
			if err := entry.Validate(stream); err != nil {
				return nil, fmt.Errorf("invalid catalog entry for stream %s: %s", stream.ID(), err)
			}
		}

		configuredStream := types.NewConfiguredStream(stream, entry)
		configuredStream.SetupState(a.state)
		configured = append(configured, configuredStream)
	}

	return configured, nil
}
