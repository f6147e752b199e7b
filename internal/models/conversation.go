package models

import (
	"database/sql"
	"time"
)

const (
	ConversationActive    = "active"
	ConversationCompleted = "completed"
)

type Conversation struct {
	ID            string
	InitialPrompt string
	ProjectType   string
	Status        string
	ClientName    sql.NullString
	ClientEmail   sql.NullString
	ClientPhone   sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ModificationEntry records one applied instruction in ProjectData history.
type ModificationEntry struct {
	Version     int       `json:"version"`
	Instruction string    `json:"instruction"`
	Timestamp   time.Time `json:"timestamp"`
}

// BusinessProfile is the structured extraction of the business described in
// the initial prompt.
type BusinessProfile struct {
	CompanyName     string   `json:"company_name"`
	Sector          string   `json:"sector"`
	DesignStyle     string   `json:"design_style"`
	Objective       string   `json:"objective"`
	Audience        string   `json:"audience"`
	Functionalities []string `json:"functionalities"`
}

type ProjectData struct {
	ConversationID      string
	Profile             BusinessProfile
	CurrentSiteCode     string
	ModificationHistory []ModificationEntry
	UpdatedAt           time.Time
}
