package driver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/datazip-inc/tap-hubspot/drivers/abstract"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/types"
)

// readSubscription fetches the subscription status of one event recipient
func (h *Hubspot) readSubscription(ctx context.Context, partition abstract.Context, emit abstract.EmitFn) error {
	recipient, _ := partition["recipient"].(string)
	if recipient == "" {
		return fmt.Errorf("missing recipient in context %v", partition)
	}

	record := types.Record{}
	if err := h.client.Get(ctx, subscriptionsPath+"/"+url.PathEscape(recipient), nil, &record); err != nil {
		if IsNotFound(err) {
			logger.Warnf("no subscription status for %s, skipping", recipient)
			return nil
		}
		return fmt.Errorf("failed to get subscription status of %s: %s", recipient, err)
	}

	if email, _ := record["email"].(string); email == "" {
		record["email"] = recipient
	}

	return emit(record)
}
