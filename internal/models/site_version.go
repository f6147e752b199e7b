package models

import "time"

// SiteVersion is an immutable snapshot of generated site code.
type SiteVersion struct {
	ID             string
	ConversationID string
	VersionNumber  int
	SiteCode       string
	CreatedAt      time.Time
}
