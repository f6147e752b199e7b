package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"site-generator-backend/internal/apperrors"
	"site-generator-backend/internal/logger"
	"site-generator-backend/internal/models"
	"site-generator-backend/internal/preview"
	"site-generator-backend/internal/sitecode"
)

// Preview renders a stored version for unpaid display.
func (s *SiteService) Preview(ctx context.Context, versionID string) (*models.SiteVersion, preview.Rendered, error) {
	version, err := s.store.GetSiteVersion(ctx, versionID)
	if err != nil {
		return nil, preview.Rendered{}, storeError(err, "site not found")
	}
	return version, s.renderer.Render(version.SiteCode), nil
}

// IssueDownloadToken grants download access to a conversation that has at
// least one version.
func (s *SiteService) IssueDownloadToken(ctx context.Context, conversationID string) (string, time.Time, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return "", time.Time{}, storeError(err, "conversation not found")
	}
	if _, err := s.store.GetLatestSiteVersion(ctx, conversationID); err != nil {
		return "", time.Time{}, storeError(err, "no site generated for this conversation yet")
	}

	token, expiresAt, err := s.tokens.Issue(conversationID)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, apperrors.CodeUnknown, "failed to issue download token")
	}
	logger.L().Info("download token issued",
		zap.String("conversation_id", conversationID),
		zap.Time("expires_at", expiresAt))
	return token, expiresAt, nil
}

// Download is the released site: the latest version converted to static
// HTML, with no sanitizing and no watermark.
type Download struct {
	ConversationID string
	Version        int
	HTML           []byte
}

// Download validates token and returns the latest version of the
// conversation it is bound to. conversationID, when set, must match.
func (s *SiteService) Download(ctx context.Context, token, conversationID string) (*Download, error) {
	claims, err := s.tokens.Validate(token, conversationID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnauthorized, msgInvalidToken)
	}

	latest, err := s.store.GetLatestSiteVersion(ctx, claims.ConversationID)
	if err != nil {
		return nil, storeError(err, "site not found")
	}

	html := []byte(sitecode.Convert(sitecode.Normalize(latest.SiteCode), sitecode.DefaultOptions()).HTML)

	if s.archive != nil {
		path, err := s.archive.UploadExport(claims.ConversationID, latest.VersionNumber, html)
		if err != nil {
			logger.L().Warn("failed to archive download",
				zap.String("conversation_id", claims.ConversationID),
				zap.Error(err))
		} else {
			logger.L().Debug("download archived", zap.String("path", path))
		}
	}

	return &Download{
		ConversationID: claims.ConversationID,
		Version:        latest.VersionNumber,
		HTML:           html,
	}, nil
}
