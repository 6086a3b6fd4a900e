package constants

import "time"

const (
	TapName        = "tap-hubspot"
	TapDescription = "Singer tap for the HubSpot marketing email API"
	DriverType     = "hubspot"

	// environment variables are TAP_HUBSPOT_<SETTING_NAME_UPPERCASE>
	EnvPrefix     = "TAP_HUBSPOT"
	ConfigFromEnv = "ENV"
	DotEnvFile    = ".env"

	DefaultAPIBaseURL = "https://api.hubapi.com"
	EmailAPIVersion   = "v1"
	Unlimited         = -1

	DefaultPageSize       = 1000
	DefaultThreadCount    = 50
	SubscriptionBatchSize = 100
	DefaultRetryCount     = 5
	DefaultRetryTimeout   = 1 * time.Second
	MaxRetryTimeout       = 60 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultDialTimeout    = 10 * time.Second
	// 100 requests per 10 seconds for private apps
	DefaultRateLimit = 10
	DefaultRateBurst = 10

	FlattenSeparator = "__"

	// viper keys shared between protocol and logger
	ArtifactsFolder = "ARTIFACTS_FOLDER"
	LogFolder       = "LOG_FOLDER"
	LogLevel        = "LOG_LEVEL"
)

var Capabilities = []string{"state", "catalog", "discover", "about", "stream-maps"}
