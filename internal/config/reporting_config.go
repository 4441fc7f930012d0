package config

import "time"

const (
	// PortalTokenTTL bounds the portal redaction gate: the magic link stops
	// working this long after the report was created. Tokens used inside the
	// Discord component chain do not expire.
	PortalTokenTTL = 15 * time.Minute

	// WindowFetchLimit is how many messages around the reported message are
	// pulled from Discord into a window. Fetched at most once per window.
	WindowFetchLimit = 10

	// MyReportsDefault and MyReportsMax bound the /myreports review surface.
	MyReportsDefault = 5
	MyReportsMax     = 10

	// InteractionDedupTTL is how long a delivered interaction id is
	// remembered for replay detection.
	InteractionDedupTTL = 15 * time.Minute

	// DMChannelCacheTTL is how long a resolved DM channel id is reused
	// before it is looked up again.
	DMChannelCacheTTL = 24 * time.Hour
)
