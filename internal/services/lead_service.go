package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"site-generator-backend/internal/apperrors"
	"site-generator-backend/internal/crm"
	"site-generator-backend/internal/logger"
	"site-generator-backend/internal/models"
	"site-generator-backend/internal/supabase"
)

type LeadService struct {
	store Store
	crm   CRM
}

// NewLeadService builds the lead capture service. crm may be nil, in which
// case leads are only stored.
func NewLeadService(store Store, crmClient CRM) *LeadService {
	return &LeadService{store: store, crm: crmClient}
}

type CaptureLeadInput struct {
	ConversationID string
	Name           string
	Email          string
	Phone          string
	Company        string
}

// CaptureLead stores the lead for a conversation, completes the conversation
// and pushes the contact to the CRM. Only the lead insert can fail the call.
func (s *LeadService) CaptureLead(ctx context.Context, in CaptureLeadInput) (*models.Lead, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Company = strings.TrimSpace(in.Company)

	if in.ConversationID == "" {
		return nil, apperrors.Validation("conversation_id is required")
	}
	if in.Name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if !ValidEmail(in.Email) {
		return nil, apperrors.Validation("invalid email")
	}

	conv, err := s.store.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, storeError(err, "conversation not found")
	}

	var profile *models.BusinessProfile
	pd, err := s.store.GetProjectData(ctx, in.ConversationID)
	switch {
	case err == nil:
		profile = &pd.Profile
	case !errors.Is(err, supabase.ErrNotFound):
		return nil, storeError(err, "")
	}

	_, err = s.store.GetLatestSiteVersion(ctx, in.ConversationID)
	if err != nil && !errors.Is(err, supabase.ErrNotFound) {
		return nil, storeError(err, "")
	}
	hasVersion := err == nil

	lead := &models.Lead{
		ConversationID: in.ConversationID,
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Company:        in.Company,
		LeadSource:     models.LeadSourceAIChat,
		LeadQuality:    LeadQuality(profile, hasVersion),
		Status:         models.LeadStatusNew,
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		if errors.Is(err, supabase.ErrDuplicate) {
			return nil, apperrors.Conflict("a lead was already captured for this conversation")
		}
		return nil, storeError(err, "")
	}

	log := logger.L().With(zap.String("conversation_id", in.ConversationID), zap.String("lead_id", lead.ID))

	if err := s.store.CompleteConversation(ctx, in.ConversationID, in.Name, in.Email, in.Phone); err != nil {
		log.Error("failed to complete conversation", zap.Error(err))
	}

	if s.crm != nil {
		first, last := crm.SplitName(in.Name)
		contactID, err := s.crm.SyncLead(ctx, crm.Contact{
			Email:     in.Email,
			FirstName: first,
			LastName:  last,
			Phone:     in.Phone,
			Company:   in.Company,
		}, leadNote(conv, profile, lead))
		if err != nil {
			log.Warn("crm sync failed", zap.Error(err))
		} else {
			log.Debug("lead synced to crm", zap.String("contact_id", contactID))
		}
	}

	log.Info("lead captured", zap.String("quality", lead.LeadQuality))
	return lead, nil
}

// CheckEmail never reveals whether an email is already known: every
// well-formed address is reported available, so the endpoint cannot be used
// to enumerate leads.
func (s *LeadService) CheckEmail(_ context.Context, email string) (bool, error) {
	if !ValidEmail(strings.TrimSpace(email)) {
		return false, apperrors.Validation("invalid email")
	}
	return true, nil
}

// ValidEmail accepts a bare address (no display name) with a dotted domain.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// LeadQuality scores how complete the conversation is: one point per filled
// profile field plus one for a stored site. Five or more is hot, three or
// more warm.
func LeadQuality(profile *models.BusinessProfile, hasVersion bool) string {
	score := 0
	if profile != nil {
		for _, v := range []string{profile.CompanyName, profile.Sector, profile.DesignStyle, profile.Objective, profile.Audience} {
			if strings.TrimSpace(v) != "" {
				score++
			}
		}
		if len(profile.Functionalities) > 0 {
			score++
		}
	}
	if hasVersion {
		score++
	}

	switch {
	case score >= 5:
		return models.LeadQualityHot
	case score >= 3:
		return models.LeadQualityWarm
	default:
		return models.LeadQualityCold
	}
}

func leadNote(conv *models.Conversation, profile *models.BusinessProfile, lead *models.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead captured from AI site generator (%s)\n", lead.LeadSource)
	fmt.Fprintf(&b, "Quality: %s\n", lead.LeadQuality)
	fmt.Fprintf(&b, "Conversation: %s\n", conv.ID)
	if profile != nil {
		if profile.Sector != "" {
			fmt.Fprintf(&b, "Sector: %s\n", profile.Sector)
		}
		if profile.Objective != "" {
			fmt.Fprintf(&b, "Objective: %s\n", profile.Objective)
		}
	}
	fmt.Fprintf(&b, "Initial prompt: %s", conv.InitialPrompt)
	return b.String()
}
