package driver

import (
	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/types"
)

const (
	EmailCampaigns       = "email_campaigns"
	EmailCampaignDetails = "email_campaign_details"
	EmailEvents          = "email_events"
	EmailSubscriptions   = "email_subscriptions"
)

var (
	emailAPIPath      = "/email/public/" + constants.EmailAPIVersion
	campaignsPath     = emailAPIPath + "/campaigns"
	eventsPath        = emailAPIPath + "/events"
	subscriptionsPath = emailAPIPath + "/subscriptions"
)

// https://legacydocs.hubspot.com/docs/methods/email/get_campaigns_by_id
func campaignsStream() *types.Stream {
	return types.NewStream(EmailCampaigns).
		WithPrimaryKey("id").
		WithSchema(types.PropertiesList(
			types.NewProperty("id", types.IntegerType(), "Unique identifier for the campaign.").Required(),
			types.NewProperty("groupId", types.IntegerType(), "Identifier of the campaign group."),
			types.NewProperty("lastUpdatedTime", types.IntegerType(), "Timestamp of the last campaign update."),
			types.NewProperty("appId", types.IntegerType(), "Application ID associated with the campaign."),
			types.NewProperty("appName", types.StringType(), "Name of the application associated with the campaign."),
		))
}

// https://legacydocs.hubspot.com/docs/methods/email/get_campaign_data
func campaignDetailsStream() *types.Stream {
	counter := func(name, description string) types.Property {
		return types.NewProperty(name, types.IntegerType(), description)
	}

	return types.NewStream(EmailCampaignDetails).
		WithParent(EmailCampaigns).
		WithPrimaryKey("id").
		WithSchema(types.PropertiesList(
			types.NewProperty("id", types.IntegerType(), "Unique identifier for the campaign.").Required(),
			types.NewProperty("appId", types.IntegerType(), "Application ID associated with the campaign."),
			types.NewProperty("appName", types.StringType(), "Name of the application associated with the campaign."),
			types.NewProperty("contentId", types.IntegerType(), "Content ID associated with the campaign."),
			types.NewProperty("subject", types.StringType(), "Subject line of the campaign email."),
			types.NewProperty("name", types.StringType(), "Name of the campaign."),
			types.NewProperty("counters", types.ObjectType(
				counter("processed", "Number of emails processed."),
				counter("deferred", "Number of emails deferred."),
				counter("unsubscribed", "Number of emails unsubscribed."),
				counter("statuschange", "Number of status changes."),
				counter("bounce", "Number of emails bounced."),
				counter("mta_dropped", "Number of emails dropped by MTA."),
				counter("dropped", "Number of emails dropped."),
				counter("delivered", "Number of emails delivered."),
				counter("sent", "Number of emails sent."),
				counter("click", "Number of clicks."),
				counter("open", "Number of opens."),
			), "Counters for various email events."),
			types.NewProperty("lastProcessingFinishedAt", types.IntegerType(), "Timestamp when the last processing finished."),
			types.NewProperty("lastProcessingStartedAt", types.IntegerType(), "Timestamp when the last processing started."),
			types.NewProperty("lastProcessingStateChangeAt", types.IntegerType(), "Timestamp when the last processing state change occurred."),
			types.NewProperty("scheduledAt", types.IntegerType(), "Timestamp when the processing was scheduled."),
			types.NewProperty("numIncluded", types.IntegerType(), "Number of items included in the processing."),
			types.NewProperty("processingState", types.StringType(), "Current state of the processing."),
			types.NewProperty("type", types.StringType(), "Type of the campaign (e.g., AB_EMAIL)."),
		))
}

// https://legacydocs.hubspot.com/docs/methods/email/get_events
func eventsStream() *types.Stream {
	return types.NewStream(EmailEvents).
		WithParent(EmailCampaigns).
		WithPrimaryKey("id", "created").
		WithCursorField("created").
		WithSchema(types.PropertiesList(
			types.NewProperty("appName", types.StringType(), "Name of the application that processed the email event."),
			types.NewProperty("response", types.StringType(), "Response message from the SMTP server."),
			types.NewProperty("id", types.StringType(), "Unique identifier for the email event.").Required(),
			types.NewProperty("created", types.IntegerType(), "Timestamp when the email event was created.").Required(),
			types.NewProperty("attempt", types.IntegerType(), "Number of attempts made to process the email event."),
			types.NewProperty("type", types.StringType(), "Type of email event (e.g., DELIVERED, OPEN, CLICK)."),
			types.NewProperty("sentBy", types.ObjectType(
				types.NewProperty("id", types.StringType(), "Unique identifier for the entity that sent the email."),
				types.NewProperty("created", types.IntegerType(), "Timestamp when the entity was created."),
			), "Details about the entity that sent the email."),
			types.NewProperty("smtpId", types.StringType(), "SMTP ID associated with the email event, if available."),
			types.NewProperty("portalId", types.IntegerType(), "HubSpot portal ID where the email event occurred."),
			types.NewProperty("recipient", types.StringType(), "Email address of the recipient."),
			types.NewProperty("appId", types.IntegerType(), "HubSpot application ID associated with the email event."),
			types.NewProperty("emailCampaignId", types.IntegerType(), "HubSpot email campaign ID associated with the email event."),
			types.NewProperty("emailCampaignGroupId", types.IntegerType(), "HubSpot email campaign group ID associated with the email event."),
		))
}

// https://legacydocs.hubspot.com/docs/methods/email/get_status
func subscriptionsStream() *types.Stream {
	return types.NewStream(EmailSubscriptions).
		WithParent(EmailEvents).
		WithPrimaryKey("email").
		WithSchema(types.PropertiesList(
			types.NewProperty("subscribed", types.BooleanType(), "Indicates whether the email is subscribed."),
			types.NewProperty("markedAsSpam", types.BooleanType(), "Indicates if the email has been marked as spam."),
			types.NewProperty("unsubscribeFromPortal", types.BooleanType(), "Indicates if the user has unsubscribed from the portal."),
			types.NewProperty("portalId", types.IntegerType(), "The identifier for the portal."),
			types.NewProperty("bounced", types.BooleanType(), "Indicates if the email has bounced."),
			types.NewProperty("email", types.StringType(), "The email address.").Required(),
			types.NewProperty("subscriptionStatuses", types.ArrayType(types.ObjectType(
				types.NewProperty("id", types.IntegerType(), "The unique identifier for the subscription status."),
				types.NewProperty("updatedAt", types.IntegerType(), "The timestamp when the subscription status was last updated."),
				types.NewProperty("subscribed", types.BooleanType(), "Indicates whether the email is subscribed."),
				types.NewProperty("optState", types.StringType(), "The opt-in state of the email."),
			)), "A list of subscription statuses for the email address."),
			types.NewProperty("status", types.StringType(), "The overall subscription status of the email address."),
		))
}
