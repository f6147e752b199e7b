package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
	"site-generator-backend/internal/database"
	"site-generator-backend/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("site version conflict")
	ErrDuplicate       = errors.New("record already exists")
)

// DatabaseClient is the SQL-backed code store. The same queries serve
// Postgres (lib/pq) and SQLite (modernc) through database.Dialect.
type DatabaseClient struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewDatabaseClient(driver, connectionString string) (*DatabaseClient, error) {
	dialect := database.Dialect(driver)
	if dialect != database.DialectPostgres && dialect != database.DialectSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == database.DialectSQLite {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db, dialect: dialect}, nil
}

// OpenMemory returns a migrated in-memory SQLite store.
func OpenMemory() (*DatabaseClient, error) {
	d, err := NewDatabaseClient("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *DatabaseClient) Migrate() error {
	return database.NewMigrator(d.db, d.dialect).Run()
}

func (d *DatabaseClient) q(query string) string {
	return d.dialect.Rebind(query)
}

func (d *DatabaseClient) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	now := time.Now().UTC()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.Status == "" {
		conv.Status = models.ConversationActive
	}
	conv.CreatedAt, conv.UpdatedAt = now, now

	_, err := d.db.ExecContext(ctx, d.q(`
		INSERT INTO conversations (id, initial_prompt, project_type, status, client_name, client_email, client_phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), conv.ID, conv.InitialPrompt, conv.ProjectType, conv.Status,
		conv.ClientName, conv.ClientEmail, conv.ClientPhone, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.QueryRowContext(ctx, d.q(`
		SELECT id, initial_prompt, project_type, status, client_name, client_email, client_phone, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`), id).Scan(
		&conv.ID, &conv.InitialPrompt, &conv.ProjectType, &conv.Status,
		&conv.ClientName, &conv.ClientEmail, &conv.ClientPhone, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (d *DatabaseClient) CompleteConversation(ctx context.Context, id, name, email, phone string) error {
	res, err := d.db.ExecContext(ctx, d.q(`
		UPDATE conversations
		SET status = ?, client_name = ?, client_email = ?, client_phone = ?, updated_at = ?
		WHERE id = ?
	`), models.ConversationCompleted, nullString(name), nullString(email), nullString(phone), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) SaveProjectData(ctx context.Context, pd *models.ProjectData) error {
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

	_, err = d.db.ExecContext(ctx, d.q(`
		INSERT INTO project_data (conversation_id, profile, current_site_code, modification_history, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (conversation_id) DO UPDATE SET
			profile = excluded.profile,
			current_site_code = excluded.current_site_code,
			modification_history = excluded.modification_history,
			updated_at = excluded.updated_at
	`), pd.ConversationID, string(profileJSON), pd.CurrentSiteCode, string(historyJSON), pd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save project data: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetProjectData(ctx context.Context, conversationID string) (*models.ProjectData, error) {
	var (
		pd                       models.ProjectData
		profileJSON, historyJSON string
	)
	err := d.db.QueryRowContext(ctx, d.q(`
		SELECT conversation_id, profile, current_site_code, modification_history, updated_at
		FROM project_data
		WHERE conversation_id = ?
	`), conversationID).Scan(&pd.ConversationID, &profileJSON, &pd.CurrentSiteCode, &historyJSON, &pd.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project data: %w", err)
	}
	if err := json.Unmarshal([]byte(profileJSON), &pd.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &pd.ModificationHistory); err != nil {
		return nil, fmt.Errorf("failed to decode modification history: %w", err)
	}
	return &pd, nil
}

// AppendSiteVersion stores code as version expected+1. It fails with
// ErrVersionConflict when expected is not the conversation's latest version
// number (0 when none exist), or when a concurrent writer won the unique
// (conversation_id, version_number) slot.
func (d *DatabaseClient) AppendSiteVersion(ctx context.Context, conversationID string, expected int, code string) (*models.SiteVersion, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var latest int
	if err := tx.QueryRowContext(ctx, d.q(`
		SELECT COALESCE(MAX(version_number), 0) FROM site_versions WHERE conversation_id = ?
	`), conversationID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to read latest version: %w", err)
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
	_, err = tx.ExecContext(ctx, d.q(`
		INSERT INTO site_versions (id, conversation_id, version_number, site_code, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), version.ID, version.ConversationID, version.VersionNumber, version.SiteCode, version.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to insert site version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to commit site version: %w", err)
	}
	return version, nil
}

func (d *DatabaseClient) GetSiteVersion(ctx context.Context, id string) (*models.SiteVersion, error) {
	return d.scanVersion(d.db.QueryRowContext(ctx, d.q(`
		SELECT id, conversation_id, version_number, site_code, created_at
		FROM site_versions
		WHERE id = ?
	`), id))
}

func (d *DatabaseClient) GetLatestSiteVersion(ctx context.Context, conversationID string) (*models.SiteVersion, error) {
	return d.scanVersion(d.db.QueryRowContext(ctx, d.q(`
		SELECT id, conversation_id, version_number, site_code, created_at
		FROM site_versions
		WHERE conversation_id = ?
		ORDER BY version_number DESC
		LIMIT 1
	`), conversationID))
}

func (d *DatabaseClient) scanVersion(row *sql.Row) (*models.SiteVersion, error) {
	var v models.SiteVersion
	err := row.Scan(&v.ID, &v.ConversationID, &v.VersionNumber, &v.SiteCode, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site version: %w", err)
	}
	return &v, nil
}

func (d *DatabaseClient) ListSiteVersions(ctx context.Context, conversationID string) ([]models.SiteVersion, error) {
	rows, err := d.db.QueryContext(ctx, d.q(`
		SELECT id, conversation_id, version_number, site_code, created_at
		FROM site_versions
		WHERE conversation_id = ?
		ORDER BY version_number DESC
	`), conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list site versions: %w", err)
	}
	defer rows.Close()

	var versions []models.SiteVersion
	for rows.Next() {
		var v models.SiteVersion
		if err := rows.Scan(&v.ID, &v.ConversationID, &v.VersionNumber, &v.SiteCode, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (d *DatabaseClient) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	lead.CreatedAt = time.Now().UTC()

	_, err := d.db.ExecContext(ctx, d.q(`
		INSERT INTO leads (id, conversation_id, name, email, phone, company, lead_source, lead_quality, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), lead.ID, lead.ConversationID, lead.Name, lead.Email, lead.Phone, lead.Company,
		lead.LeadSource, lead.LeadQuality, lead.Status, lead.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetLeadByConversation(ctx context.Context, conversationID string) (*models.Lead, error) {
	var lead models.Lead
	err := d.db.QueryRowContext(ctx, d.q(`
		SELECT id, conversation_id, name, email, phone, company, lead_source, lead_quality, status, created_at
		FROM leads
		WHERE conversation_id = ?
	`), conversationID).Scan(
		&lead.ID, &lead.ConversationID, &lead.Name, &lead.Email, &lead.Phone, &lead.Company,
		&lead.LeadSource, &lead.LeadQuality, &lead.Status, &lead.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
