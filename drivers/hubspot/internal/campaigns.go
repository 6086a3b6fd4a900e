package driver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
)

// readCampaigns pages through every campaign until campaigns_limit is reached
func (h *Hubspot) readCampaigns(ctx context.Context, emit abstract.EmitFn) error {
	limit := h.settings.CampaignsLimit
	if limit.Reached(0) {
		logger.Infof("campaigns_limit is %s, skipping campaigns", limit)
		h.campaignsTruncated.Store(true)
		return nil
	}

	var count int64
	return h.client.Paginate(ctx, campaignsPath, nil, "campaigns", func(records []types.Record) (bool, error) {
		for _, record := range records {
			if err := emit(record); err != nil {
				return true, err
			}
			count++
			if limit.Reached(count) {
				logger.Infof("campaigns_limit of %s reached", limit)
				h.campaignsTruncated.Store(true)
				return true, nil
			}
		}
		return false, nil
	})
}

func (h *Hubspot) readCampaignDetails(ctx context.Context, partition abstract.Context, emit abstract.EmitFn) error {
	campaignID, err := formatID(partition["campaign_id"])
	if err != nil {
		return fmt.Errorf("invalid campaign id: %s", err)
	}

	query := url.Values{}
	if appID, err := formatID(partition["app_id"]); err == nil {
		query.Set("appId", appID)
	}

	record := types.Record{}
	if err := h.client.Get(ctx, campaignsPath+"/"+url.PathEscape(campaignID), query, &record); err != nil {
		if IsNotFound(err) {
			logger.Warnf("campaign %s not found, skipping details", campaignID)
			return nil
		}
		return fmt.Errorf("failed to get campaign %s: %s", campaignID, err)
	}

	return emit(record)
}
