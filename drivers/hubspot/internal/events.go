package driver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/datazip-inc/tap-hubspot/typeutils"
)

// readEvents pages through the events of one campaign. The lower bound is the later of
// email_events_start_timestamp and the bookmark; email_events_limit caps events across
// all campaigns of the run.
func (h *Hubspot) readEvents(ctx context.Context, stream *types.ConfiguredStream, partition abstract.Context, emit abstract.EmitFn) error {
	limit := h.settings.EmailEventsLimit
	if limit.Reached(h.eventsRead.Load()) {
		h.eventsTruncated.Store(true)
		return nil
	}

	query, err := h.eventsQuery(stream, partition)
	if err != nil {
		return err
	}

	return h.client.Paginate(ctx, eventsPath, query, "events", func(records []types.Record) (bool, error) {
		for _, record := range records {
			// reserve before emitting so concurrent campaigns never exceed the limit
			if limit.Reached(h.eventsRead.Add(1) - 1) {
				logger.Debugf("email_events_limit of %s reached", limit)
				h.eventsTruncated.Store(true)
				return true, nil
			}
			if err := emit(record); err != nil {
				return true, err
			}
		}

		if limit.Reached(h.eventsRead.Load()) {
			h.eventsTruncated.Store(true)
			return true, nil
		}
		return false, nil
	})
}

func (h *Hubspot) eventsQuery(stream *types.ConfiguredStream, partition abstract.Context) (url.Values, error) {
	campaignID, err := formatID(partition["campaign_id"])
	if err != nil {
		return nil, fmt.Errorf("invalid campaign id: %s", err)
	}

	query := url.Values{}
	query.Set("campaignId", campaignID)
	if appID, err := formatID(partition["app_id"]); err == nil {
		query.Set("appId", appID)
	}

	pageSize := int64(constants.DefaultPageSize)
	// another campaign may have used up the budget since readEvents checked it; the
	// API rejects a zero limit and the callback stops before emitting anyway
	if remaining := h.settings.EmailEventsLimit.Remaining(h.eventsRead.Load()); remaining >= 0 {
		pageSize = max(min(pageSize, remaining), 1)
	}
	query.Set("limit", strconv.FormatInt(pageSize, 10))

	start, found, err := h.eventsStartTimestamp(stream)
	if err != nil {
		return nil, err
	}
	if found {
		query.Set("startTimestamp", strconv.FormatInt(start, 10))
	}
	if end := h.settings.EmailEventsEndTimestamp; end != nil {
		query.Set("endTimestamp", strconv.FormatInt(*end, 10))
	}
	if h.settings.EmailEventsType != "" {
		query.Set("eventType", h.settings.EmailEventsType)
	}
	if h.settings.EmailEventsExcludeFilteredEvents {
		query.Set("excludeFilteredEvents", "true")
	}

	return query, nil
}

// eventsStartTimestamp returns the later of the configured start and the bookmark
func (h *Hubspot) eventsStartTimestamp(stream *types.ConfiguredStream) (int64, bool, error) {
	var start int64
	found := false
	if configured := h.settings.EmailEventsStartTimestamp; configured != nil {
		start, found = *configured, true
	}

	if bookmark := stream.InitialState(); bookmark != nil {
		value, err := typeutils.ReformatInt64(bookmark)
		if err != nil {
			return 0, false, fmt.Errorf("invalid %s bookmark %v: %s", stream.ID(), bookmark, err)
		}
		if !found || value > start {
			start, found = value, true
		}
	}

	return start, found, nil
}

// formatID renders a numeric id decoded from JSON without exponent or fraction
func formatID(value any) (string, error) {
	if value == nil {
		return "", fmt.Errorf("missing id")
	}
	id, err := typeutils.ReformatInt64(value)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}
