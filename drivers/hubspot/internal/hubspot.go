package driver

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/datazip-inc/tap-hubspot/config"
	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
)

// Hubspot reads the marketing email API
type Hubspot struct {
	settings config.Settings
	client   *Client
	// events emitted in this run, bounded by email_events_limit
	eventsRead atomic.Int64
	// set when a limit stopped reading before the API ran out of records
	campaignsTruncated atomic.Bool
	eventsTruncated    atomic.Bool
}

func (h *Hubspot) Type() string {
	return constants.DriverType
}

func (h *Hubspot) Setup(_ context.Context, settings config.Settings) error {
	if h.client != nil {
		h.client.Close()
	}

	h.settings = settings
	h.client = NewClient(settings)
	h.eventsRead.Store(0)
	h.campaignsTruncated.Store(false)
	h.eventsTruncated.Store(false)

	logger.Debugf("hubspot driver configured for %s", settings.BaseURL())
	return nil
}

func (h *Hubspot) Check(ctx context.Context) error {
	if h.client == nil {
		return fmt.Errorf("driver not set up")
	}

	query := url.Values{}
	query.Set("limit", "1")
	if err := h.client.Get(ctx, campaignsPath, query, &map[string]any{}); err != nil {
		return fmt.Errorf("failed to list campaigns: %s", err)
	}

	return nil
}

func (h *Hubspot) Streams() []*types.Stream {
	return []*types.Stream{
		campaignsStream(),
		campaignDetailsStream(),
		eventsStream(),
		subscriptionsStream(),
	}
}

func (h *Hubspot) MaxConnections() int {
	return max(h.settings.MaxThreads, 1)
}

// Partial reports whether email_events missed records in this run, either past
// email_events_limit or in campaigns past campaigns_limit. Its bookmark must not move then,
// since the next run would skip those events.
func (h *Hubspot) Partial(stream *types.ConfiguredStream) bool {
	if stream.ID() != EmailEvents {
		return false
	}
	return h.eventsTruncated.Load() || h.campaignsTruncated.Load()
}

func (h *Hubspot) Read(ctx context.Context, stream *types.ConfiguredStream, partition abstract.Context, emit abstract.EmitFn) error {
	if h.client == nil {
		return fmt.Errorf("driver not set up")
	}

	switch stream.ID() {
	case EmailCampaigns:
		return h.readCampaigns(ctx, emit)
	case EmailCampaignDetails:
		return h.readCampaignDetails(ctx, partition, emit)
	case EmailEvents:
		return h.readEvents(ctx, stream, partition, emit)
	case EmailSubscriptions:
		return h.readSubscription(ctx, partition, emit)
	default:
		return fmt.Errorf("unknown stream %s", stream.ID())
	}
}

func (h *Hubspot) ChildContext(stream *types.ConfiguredStream, record types.Record) abstract.Context {
	switch stream.ID() {
	case EmailCampaigns:
		if record["id"] == nil {
			return nil
		}
		return abstract.Context{"campaign_id": record["id"], "app_id": record["appId"]}
	case EmailEvents:
		recipient, _ := record["recipient"].(string)
		if recipient == "" {
			return nil
		}
		return abstract.Context{"recipient": recipient}
	default:
		return nil
	}
}

// Close releases the HTTP connections of the driver
func (h *Hubspot) Close() {
	if h.client != nil {
		h.client.Close()
	}
}
