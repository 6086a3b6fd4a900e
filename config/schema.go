package config

import (
	"strings"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/types"
)

// Kind is the semantic type of a setting; raw values are parsed according to it
type Kind string

const (
	KindCredential Kind = "credential"
	KindURL        Kind = "url"
	KindLimit      Kind = "limit"     // integer, -1 means unlimited
	KindTimestamp  Kind = "timestamp" // epoch milliseconds
	KindBoolean    Kind = "boolean"
	KindString     Kind = "string"
	KindInteger    Kind = "integer" // bounded below by Setting.Min
	KindObject     Kind = "object"
)

type Setting struct {
	Name        string
	Kind        Kind
	Sensitive   bool
	Required    bool
	Default     any
	Min         int64
	Description string
}

// EnvVar returns the TAP_HUBSPOT_<NAME> override variable
func (s Setting) EnvVar() string {
	return constants.EnvPrefix + "_" + strings.ToUpper(s.Name)
}

// Schema declares every setting the tap understands
var Schema = []Setting{
	{
		Name:        "access_token",
		Kind:        KindCredential,
		Sensitive:   true,
		Required:    true,
		Description: "The token to authenticate against the API service",
	},
	{
		Name:        "api_base_url",
		Kind:        KindURL,
		Default:     constants.DefaultAPIBaseURL,
		Description: "The base url for the API service",
	},
	{
		Name:        "campaigns_limit",
		Kind:        KindLimit,
		Default:     int64(constants.Unlimited),
		Description: "Limits how many campaign ids are fetched, -1 fetches all. For debugging only",
	},
	{
		Name:        "email_events_limit",
		Kind:        KindLimit,
		Default:     int64(constants.Unlimited),
		Description: "Limits how many email events are fetched, -1 fetches all. For debugging only",
	},
	{
		Name:        "email_events_start_timestamp",
		Kind:        KindTimestamp,
		Description: "Only return events which occurred at or after the given timestamp (in milliseconds since epoch)",
	},
	{
		Name:        "email_events_end_timestamp",
		Kind:        KindTimestamp,
		Description: "Only return events which occurred at or before the given timestamp (in milliseconds since epoch)",
	},
	{
		Name:        "email_events_type",
		Kind:        KindString,
		Description: "Only return events of the specified type (case-sensitive)",
	},
	{
		Name:        "email_events_exclude_filtered_events",
		Kind:        KindBoolean,
		Default:     false,
		Description: "Only return events that have not been filtered out due to customer filtering settings",
	},
	{
		Name:        "user_agent",
		Kind:        KindString,
		Description: "User-Agent header sent with every request",
	},
	{
		Name:        "max_threads",
		Kind:        KindInteger,
		Default:     int64(constants.DefaultThreadCount),
		Min:         1,
		Description: "How many campaigns or recipients are fetched concurrently",
	},
	{
		Name:        "backoff_retry_count",
		Kind:        KindInteger,
		Default:     int64(constants.DefaultRetryCount),
		Min:         0,
		Description: "How many times a rate limited or failed request is retried",
	},
	{
		Name:        "stream_maps",
		Kind:        KindObject,
		Description: "Stream maps applied to records before they are emitted",
	},
	{
		Name:        "flattening_enabled",
		Kind:        KindBoolean,
		Default:     false,
		Description: "Flatten nested record properties into parent__child columns",
	},
	{
		Name:        "flattening_max_depth",
		Kind:        KindInteger,
		Default:     int64(0),
		Min:         0,
		Description: "The max depth to flatten nested properties",
	},
}

func Lookup(name string) (Setting, bool) {
	for _, setting := range Schema {
		if setting.Name == name {
			return setting, true
		}
	}

	return Setting{}, false
}

// JSONSchema renders the settings as the JSON schema advertised by --about
func JSONSchema() map[string]any {
	properties := make(map[string]any, len(Schema))
	required := []string{}
	for _, setting := range Schema {
		property := map[string]any{
			"description": setting.Description,
		}
		switch setting.Kind {
		case KindCredential:
			property["type"] = []types.DataType{types.String}
			property["secret"] = true
			property["writeOnly"] = true
		case KindURL:
			property["type"] = []types.DataType{types.String}
			property["format"] = "uri"
		case KindLimit, KindTimestamp, KindInteger:
			property["type"] = []types.DataType{types.Int64, types.String}
		case KindBoolean:
			property["type"] = []types.DataType{types.Bool, types.String}
		case KindObject:
			property["type"] = []types.DataType{types.Object}
		default:
			property["type"] = []types.DataType{types.String}
		}
		if setting.Default != nil {
			property["default"] = setting.Default
		}
		if setting.Required {
			required = append(required, setting.Name)
		}
		properties[setting.Name] = property
	}

	return map[string]any{
		"type":       types.Object,
		"properties": properties,
		"required":   required,
	}
}
