package config

import "time"

const (
	// Dialogue
	BotReplyDelay        = 1 * time.Second
	ListenRestartDelay   = 3 * time.Second
	MinDescriptionLength = 10
	SessionIdleTimeout   = 30 * time.Minute
	SessionSweepInterval = time.Minute

	// Extraction
	ExtractTimeout          = 20 * time.Second
	ClassifierTemperature   = 0.3
	ClassifierMaxTokens     = 50
	ExtractorTemperature    = 0.3
	ExtractorMaxTokens      = 500
	GuidanceTemperature     = 0.4
	GuidanceMaxTokens       = 400
	MaxGuidanceTips         = 5
	TrackingCodeMaxAttempts = 5

	// Session tokens
	SessionTokenTTL    = 24 * time.Hour
	SessionTokenIssuer = "cybershield-service"
)
