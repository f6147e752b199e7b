package services

import (
	"context"
	"errors"
	"time"

	"site-generator-backend/internal/apperrors"
	"site-generator-backend/internal/crm"
	"site-generator-backend/internal/downloadtoken"
	"site-generator-backend/internal/llm"
	"site-generator-backend/internal/models"
	"site-generator-backend/internal/supabase"
)

// Store is the code store as the services use it. supabase.DatabaseClient
// and supabase.RESTStore both satisfy it.
type Store interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	CompleteConversation(ctx context.Context, id, name, email, phone string) error

	SaveProjectData(ctx context.Context, pd *models.ProjectData) error
	GetProjectData(ctx context.Context, conversationID string) (*models.ProjectData, error)

	AppendSiteVersion(ctx context.Context, conversationID string, expected int, code string) (*models.SiteVersion, error)
	GetSiteVersion(ctx context.Context, id string) (*models.SiteVersion, error)
	GetLatestSiteVersion(ctx context.Context, conversationID string) (*models.SiteVersion, error)
	ListSiteVersions(ctx context.Context, conversationID string) ([]models.SiteVersion, error)

	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLeadByConversation(ctx context.Context, conversationID string) (*models.Lead, error)
}

// Generator produces site code. generator.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string, profile models.BusinessProfile) (string, error)
	Modify(ctx context.Context, code, instruction string, profile models.BusinessProfile) (string, error)
	ExtractProfile(ctx context.Context, prompt string) (models.BusinessProfile, error)
}

type DownloadTokens interface {
	Issue(conversationID string) (string, time.Time, error)
	Validate(token, conversationID string) (*downloadtoken.Claims, error)
}

type CRM interface {
	SyncLead(ctx context.Context, contact crm.Contact, note string) (string, error)
}

type ExportArchive interface {
	UploadExport(conversationID string, version int, html []byte) (string, error)
}

const (
	msgGenerationFailed = "Não foi possível gerar o site agora. Tente novamente."
	msgProviderBusy     = "O serviço de IA está ocupado. Tente novamente em instantes."
	msgInvalidToken     = "Token inválido ou expirado"
)

func providerError(err error) error {
	if llm.IsRateLimited(err) {
		return apperrors.RateLimited(err, msgProviderBusy)
	}
	return apperrors.Provider(err, msgGenerationFailed)
}

// storeError maps store sentinels to app errors; notFound is the message for
// a missing record.
func storeError(err error, notFound string) error {
	if notFound == "" {
		notFound = "not found"
	}
	switch {
	case errors.Is(err, supabase.ErrNotFound):
		return apperrors.Wrap(err, apperrors.CodeNotFound, notFound)
	case errors.Is(err, supabase.ErrVersionConflict):
		return apperrors.Wrap(err, apperrors.CodeConflict, "the site was modified concurrently, reload and try again")
	case errors.Is(err, supabase.ErrDuplicate):
		return apperrors.Wrap(err, apperrors.CodeConflict, "record already exists")
	default:
		return apperrors.Storage(err, "storage error")
	}
}
