package models

import "time"

type GenerateResponse struct {
	ConversationID string `json:"conversation_id"`
	VersionID      string `json:"version_id"`
	Version        int    `json:"version"`
	Code           string `json:"code"`
}

type ModifyResponse struct {
	ConversationID string `json:"conversation_id"`
	VersionID      string `json:"version_id"`
	Version        int    `json:"version"`
	Code           string `json:"code"`
	Instruction    string `json:"instruction"`
}

type ConversationResponse struct {
	ID                  string              `json:"id"`
	InitialPrompt       string              `json:"initial_prompt"`
	ProjectType         string              `json:"project_type"`
	Status              string              `json:"status"`
	State               string              `json:"state"`
	Profile             *BusinessProfile    `json:"profile,omitempty"`
	ModificationHistory []ModificationEntry `json:"modification_history,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type VersionSummary struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type VersionListResponse struct {
	ConversationID string           `json:"conversation_id"`
	Versions       []VersionSummary `json:"versions"`
}

type LeadResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	LeadQuality    string    `json:"lead_quality"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type CheckEmailResponse struct {
	Available bool `json:"available"`
}

type DownloadTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
