package config

import (
	"fmt"
	"strings"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/mitchellh/hashstructure"
)

// Limit caps how many items are fetched; -1 means unlimited
type Limit int64

func (l Limit) Unlimited() bool {
	return l == constants.Unlimited
}

// Reached reports whether count items already exhaust the limit
func (l Limit) Reached(count int64) bool {
	return !l.Unlimited() && count >= int64(l)
}

// Remaining returns how many more items may be fetched, or -1 when unlimited
func (l Limit) Remaining(count int64) int64 {
	if l.Unlimited() {
		return constants.Unlimited
	}

	return max(int64(l)-count, 0)
}

func (l Limit) String() string {
	if l.Unlimited() {
		return "unlimited"
	}

	return fmt.Sprint(int64(l))
}

// Settings is the resolved configuration of one run. It is built once by Resolve
// and never mutated afterwards.
type Settings struct {
	AccessToken string `json:"access_token" validate:"required" hash:"ignore"`
	APIBaseURL  string `json:"api_base_url" validate:"required,http_url"`

	CampaignsLimit   Limit `json:"campaigns_limit" validate:"min=-1"`
	EmailEventsLimit Limit `json:"email_events_limit" validate:"min=-1"`

	EmailEventsStartTimestamp        *int64 `json:"email_events_start_timestamp,omitempty" validate:"omitempty,min=0"`
	EmailEventsEndTimestamp          *int64 `json:"email_events_end_timestamp,omitempty" validate:"omitempty,min=0"`
	EmailEventsType                  string `json:"email_events_type,omitempty"`
	EmailEventsExcludeFilteredEvents bool   `json:"email_events_exclude_filtered_events"`

	UserAgent          string         `json:"user_agent,omitempty"`
	MaxThreads         int            `json:"max_threads" validate:"min=1"`
	BackoffRetryCount  int            `json:"backoff_retry_count" validate:"min=0"`
	StreamMaps         map[string]any `json:"stream_maps,omitempty"`
	FlatteningEnabled  bool           `json:"flattening_enabled"`
	FlatteningMaxDepth int            `json:"flattening_max_depth" validate:"min=0"`
}

// BaseURL returns api_base_url without a trailing slash
func (s Settings) BaseURL() string {
	return strings.TrimRight(s.APIBaseURL, "/")
}

// Redacted returns the settings as a map with sensitive values masked, safe for logs
func (s Settings) Redacted() map[string]any {
	values := map[string]any{
		"access_token":                         s.AccessToken,
		"api_base_url":                         s.APIBaseURL,
		"campaigns_limit":                      s.CampaignsLimit.String(),
		"email_events_limit":                   s.EmailEventsLimit.String(),
		"email_events_type":                    s.EmailEventsType,
		"email_events_exclude_filtered_events": s.EmailEventsExcludeFilteredEvents,
		"user_agent":                           s.UserAgent,
		"max_threads":                          s.MaxThreads,
		"backoff_retry_count":                  s.BackoffRetryCount,
		"flattening_enabled":                   s.FlatteningEnabled,
		"flattening_max_depth":                 s.FlatteningMaxDepth,
		"stream_maps":                          len(s.StreamMaps),
	}
	if s.EmailEventsStartTimestamp != nil {
		values["email_events_start_timestamp"] = *s.EmailEventsStartTimestamp
	}
	if s.EmailEventsEndTimestamp != nil {
		values["email_events_end_timestamp"] = *s.EmailEventsEndTimestamp
	}

	for _, setting := range Schema {
		if setting.Sensitive {
			if value, found := values[setting.Name]; found && value != "" {
				values[setting.Name] = "********"
			}
		}
	}

	return values
}

// Fingerprint identifies a configuration without its secrets; runs with the same
// fingerprint read the same data
func (s Settings) Fingerprint() (uint64, error) {
	return hashstructure.Hash(s, nil)
}
