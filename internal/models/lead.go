package models

import "time"

const (
	LeadSourceAIChat = "ai_chat"
	LeadStatusNew    = "new"

	LeadQualityHot  = "hot"
	LeadQualityWarm = "warm"
	LeadQualityCold = "cold"
)

type Lead struct {
	ID             string
	ConversationID string
	Name           string
	Email          string
	Phone          string
	Company        string
	LeadSource     string
	LeadQuality    string
	Status         string
	CreatedAt      time.Time
}
