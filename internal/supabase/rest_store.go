package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"site-generator-backend/internal/models"
)

// RESTStore is the code store over Supabase PostgREST, used when the service
// has no direct database connection. The tables are the ones created by the
// SQL migrations.
type RESTStore struct {
	client *Client
}

func NewRESTStore(client *Client) *RESTStore {
	return &RESTStore{client: client}
}

type conversationRow struct {
	ID            string  `json:"id"`
	InitialPrompt string  `json:"initial_prompt"`
	ProjectType   string  `json:"project_type"`
	Status        string  `json:"status"`
	ClientName    *string `json:"client_name"`
	ClientEmail   *string `json:"client_email"`
	ClientPhone   *string `json:"client_phone"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type projectDataRow struct {
	ConversationID      string `json:"conversation_id"`
	Profile             string `json:"profile"`
	CurrentSiteCode     string `json:"current_site_code"`
	ModificationHistory string `json:"modification_history"`
	UpdatedAt           string `json:"updated_at"`
}

type siteVersionRow struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	VersionNumber  int    `json:"version_number"`
	SiteCode       string `json:"site_code"`
	CreatedAt      string `json:"created_at"`
}

type leadRow struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	LeadSource     string `json:"lead_source"`
	LeadQuality    string `json:"lead_quality"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func (s *RESTStore) CreateConversation(_ context.Context, conv *models.Conversation) error {
	now := time.Now().UTC()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.Status == "" {
		conv.Status = models.ConversationActive
	}
	conv.CreatedAt, conv.UpdatedAt = now, now

	row := conversationRow{
		ID:            conv.ID,
		InitialPrompt: conv.InitialPrompt,
		ProjectType:   conv.ProjectType,
		Status:        conv.Status,
		ClientName:    optional(conv.ClientName.String),
		ClientEmail:   optional(conv.ClientEmail.String),
		ClientPhone:   optional(conv.ClientPhone.String),
		CreatedAt:     formatTime(now),
		UpdatedAt:     formatTime(now),
	}
	_, _, err := s.client.Supabase.From("conversations").Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		if isRESTUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (s *RESTStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	var rows []conversationRow
	_, err := s.client.Supabase.From("conversations").
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	r := rows[0]
	conv := &models.Conversation{
		ID:            r.ID,
		InitialPrompt: r.InitialPrompt,
		ProjectType:   r.ProjectType,
		Status:        r.Status,
		ClientName:    nullString(deref(r.ClientName)),
		ClientEmail:   nullString(deref(r.ClientEmail)),
		ClientPhone:   nullString(deref(r.ClientPhone)),
		CreatedAt:     parseTime(r.CreatedAt),
		UpdatedAt:     parseTime(r.UpdatedAt),
	}
	return conv, nil
}

func (s *RESTStore) CompleteConversation(ctx context.Context, id, name, email, phone string) error {
	if _, err := s.GetConversation(ctx, id); err != nil {
		return err
	}
	update := map[string]interface{}{
		"status":       models.ConversationCompleted,
		"client_name":  optional(name),
		"client_email": optional(email),
		"client_phone": optional(phone),
		"updated_at":   formatTime(time.Now().UTC()),
	}
	_, _, err := s.client.Supabase.From("conversations").Update(update, "minimal", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("failed to complete conversation: %w", err)
	}
	return nil
}

func (s *RESTStore) SaveProjectData(_ context.Context, pd *models.ProjectData) error {
	profileJSON, err := json.Marshal(pd.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	history := pd.ModificationHistory
	if history == nil {
		history = []models.ModificationEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal modification history: %w", err)
	}
	pd.UpdatedAt = time.Now().UTC()

	row := projectDataRow{
		ConversationID:      pd.ConversationID,
		Profile:             string(profileJSON),
		CurrentSiteCode:     pd.CurrentSiteCode,
		ModificationHistory: string(historyJSON),
		UpdatedAt:           formatTime(pd.UpdatedAt),
	}
	_, _, err = s.client.Supabase.From("project_data").Upsert(row, "conversation_id", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to save project data: %w", err)
	}
	return nil
}

func (s *RESTStore) GetProjectData(_ context.Context, conversationID string) (*models.ProjectData, error) {
	var rows []projectDataRow
	_, err := s.client.Supabase.From("project_data").
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get project data: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	r := rows[0]
	pd := &models.ProjectData{
		ConversationID:  r.ConversationID,
		CurrentSiteCode: r.CurrentSiteCode,
		UpdatedAt:       parseTime(r.UpdatedAt),
	}
	if err := json.Unmarshal([]byte(r.Profile), &pd.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := json.Unmarshal([]byte(r.ModificationHistory), &pd.ModificationHistory); err != nil {
		return nil, fmt.Errorf("failed to decode modification history: %w", err)
	}
	return pd, nil
}

// AppendSiteVersion has the same compare-and-swap contract as the SQL store;
// the unique (conversation_id, version_number) constraint settles races
// between the read and the insert.
func (s *RESTStore) AppendSiteVersion(ctx context.Context, conversationID string, expected int, code string) (*models.SiteVersion, error) {
	latest := 0
	current, err := s.GetLatestSiteVersion(ctx, conversationID)
	switch {
	case err == nil:
		latest = current.VersionNumber
	case err != ErrNotFound:
		return nil, err
	}
	if latest != expected {
		return nil, ErrVersionConflict
	}

	version := &models.SiteVersion{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		VersionNumber:  expected + 1,
		SiteCode:       code,
		CreatedAt:      time.Now().UTC(),
	}
	row := siteVersionRow{
		ID:             version.ID,
		ConversationID: version.ConversationID,
		VersionNumber:  version.VersionNumber,
		SiteCode:       version.SiteCode,
		CreatedAt:      formatTime(version.CreatedAt),
	}
	_, _, err = s.client.Supabase.From("site_versions").Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		if isRESTUniqueViolation(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to insert site version: %w", err)
	}
	return version, nil
}

func (s *RESTStore) GetSiteVersion(_ context.Context, id string) (*models.SiteVersion, error) {
	var rows []siteVersionRow
	_, err := s.client.Supabase.From("site_versions").
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get site version: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toModel(), nil
}

func (s *RESTStore) GetLatestSiteVersion(_ context.Context, conversationID string) (*models.SiteVersion, error) {
	var rows []siteVersionRow
	_, err := s.client.Supabase.From("site_versions").
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		Order("version_number", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest site version: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toModel(), nil
}

func (s *RESTStore) ListSiteVersions(_ context.Context, conversationID string) ([]models.SiteVersion, error) {
	var rows []siteVersionRow
	_, err := s.client.Supabase.From("site_versions").
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		Order("version_number", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list site versions: %w", err)
	}

	versions := make([]models.SiteVersion, len(rows))
	for i, r := range rows {
		versions[i] = *r.toModel()
	}
	return versions, nil
}

func (s *RESTStore) CreateLead(_ context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	lead.CreatedAt = time.Now().UTC()

	row := leadRow{
		ID:             lead.ID,
		ConversationID: lead.ConversationID,
		Name:           lead.Name,
		Email:          lead.Email,
		Phone:          lead.Phone,
		Company:        lead.Company,
		LeadSource:     lead.LeadSource,
		LeadQuality:    lead.LeadQuality,
		Status:         lead.Status,
		CreatedAt:      formatTime(lead.CreatedAt),
	}
	_, _, err := s.client.Supabase.From("leads").Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		if isRESTUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (s *RESTStore) GetLeadByConversation(_ context.Context, conversationID string) (*models.Lead, error) {
	var rows []leadRow
	_, err := s.client.Supabase.From("leads").
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	r := rows[0]
	return &models.Lead{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Company:        r.Company,
		LeadSource:     r.LeadSource,
		LeadQuality:    r.LeadQuality,
		Status:         r.Status,
		CreatedAt:      parseTime(r.CreatedAt),
	}, nil
}

func (r siteVersionRow) toModel() *models.SiteVersion {
	return &models.SiteVersion{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		VersionNumber:  r.VersionNumber,
		SiteCode:       r.SiteCode,
		CreatedAt:      parseTime(r.CreatedAt),
	}
}

// PostgREST surfaces Postgres error codes in the error text.
func isRESTUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

// timestampLayouts covers PostgREST output for TIMESTAMP and TIMESTAMPTZ.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

func parseTime(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
