package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"site-generator-backend/internal/apperrors"
	"site-generator-backend/internal/logger"
	"site-generator-backend/internal/models"
	"site-generator-backend/internal/preview"
	"site-generator-backend/internal/sitecode"
	"site-generator-backend/internal/supabase"
)

const (
	MaxPromptLength    = 4000
	defaultProjectType = "website"
)

type SiteService struct {
	store    Store
	gen      Generator
	renderer *preview.Renderer
	tokens   DownloadTokens
	archive  ExportArchive
	locks    *keyedMutex
	states   *stateTracker
}

// NewSiteService wires the generation pipeline. archive may be nil.
func NewSiteService(store Store, gen Generator, renderer *preview.Renderer, tokens DownloadTokens, archive ExportArchive) *SiteService {
	return &SiteService{
		store:    store,
		gen:      gen,
		renderer: renderer,
		tokens:   tokens,
		archive:  archive,
		locks:    newKeyedMutex(),
		states:   newStateTracker(),
	}
}

type GenerateInput struct {
	Prompt         string
	ProjectType    string
	ConversationID string
}

type ModifyResult struct {
	Version     *models.SiteVersion
	Instruction string
}

// Generate creates (or reuses) a conversation and stores the first version.
// A conversation given by id is reused only while it has no version.
func (s *SiteService) Generate(ctx context.Context, in GenerateInput) (*models.SiteVersion, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if err := validateText("prompt", prompt); err != nil {
		return nil, err
	}

	conv, err := s.conversationForGenerate(ctx, in, prompt)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(conv.ID)
	defer unlock()

	if _, err := s.store.GetLatestSiteVersion(ctx, conv.ID); err == nil {
		return nil, apperrors.Conflict("conversation already has a generated site, use modify")
	} else if !errors.Is(err, supabase.ErrNotFound) {
		return nil, storeError(err, "")
	}

	s.states.set(conv.ID, StateGenerating)
	log := logger.L().With(zap.String("conversation_id", conv.ID))

	profile, err := s.gen.ExtractProfile(ctx, prompt)
	if err != nil {
		log.Warn("profile extraction failed, continuing without profile", zap.Error(err))
		profile = models.BusinessProfile{}
	}

	raw, err := s.gen.Generate(ctx, prompt, profile)
	if err != nil {
		s.states.set(conv.ID, StateFailed)
		log.Error("site generation failed", zap.Error(err))
		return nil, providerError(err)
	}
	code := sitecode.Normalize(raw)

	version, err := s.store.AppendSiteVersion(ctx, conv.ID, 0, code)
	if err != nil {
		s.states.set(conv.ID, StateFailed)
		return nil, storeError(err, "conversation not found")
	}
	s.states.set(conv.ID, StateStored)

	if err := s.store.SaveProjectData(ctx, &models.ProjectData{
		ConversationID:  conv.ID,
		Profile:         profile,
		CurrentSiteCode: code,
	}); err != nil {
		log.Error("failed to save project data", zap.Error(err))
	}

	log.Info("site generated",
		zap.String("version_id", version.ID),
		zap.Int("version", version.VersionNumber),
		zap.Int("code_bytes", len(code)))
	return version, nil
}

func (s *SiteService) conversationForGenerate(ctx context.Context, in GenerateInput, prompt string) (*models.Conversation, error) {
	if in.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, in.ConversationID)
		if err != nil {
			return nil, storeError(err, "conversation not found")
		}
		return conv, nil
	}

	projectType := strings.TrimSpace(in.ProjectType)
	if projectType == "" {
		projectType = defaultProjectType
	}
	conv := &models.Conversation{
		InitialPrompt: prompt,
		ProjectType:   projectType,
		Status:        models.ConversationActive,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, storeError(err, "")
	}
	return conv, nil
}

// Modify applies instruction to the latest version and stores the result as
// the next version. Concurrent modifications of one conversation are
// serialized here and the store rejects a stale expected version.
func (s *SiteService) Modify(ctx context.Context, conversationID, instruction string) (*ModifyResult, error) {
	instruction = strings.TrimSpace(instruction)
	if conversationID == "" {
		return nil, apperrors.Validation("conversation_id is required")
	}
	if err := validateText("instruction", instruction); err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, "conversation not found")
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	latest, err := s.store.GetLatestSiteVersion(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, "no site generated for this conversation yet")
	}

	pd, err := s.store.GetProjectData(ctx, conversationID)
	if errors.Is(err, supabase.ErrNotFound) {
		pd = &models.ProjectData{ConversationID: conversationID}
	} else if err != nil {
		return nil, storeError(err, "")
	}

	rewritten := RewriteInstruction(instruction, conv.ClientPhone.String)
	log := logger.L().With(zap.String("conversation_id", conversationID), zap.Int("from_version", latest.VersionNumber))
	if rewritten != instruction {
		log.Debug("instruction rewritten", zap.String("instruction", instruction))
	}

	s.states.set(conversationID, StateModifying)

	raw, err := s.gen.Modify(ctx, latest.SiteCode, rewritten, pd.Profile)
	if err != nil {
		s.states.set(conversationID, StateFailed)
		log.Error("site modification failed", zap.Error(err))
		return nil, providerError(err)
	}
	code := sitecode.Normalize(raw)

	version, err := s.store.AppendSiteVersion(ctx, conversationID, latest.VersionNumber, code)
	if err != nil {
		if errors.Is(err, supabase.ErrVersionConflict) {
			s.states.set(conversationID, StateStored)
		} else {
			s.states.set(conversationID, StateFailed)
		}
		return nil, storeError(err, "conversation not found")
	}
	s.states.set(conversationID, StateStored)

	pd.CurrentSiteCode = code
	pd.ModificationHistory = append(pd.ModificationHistory, models.ModificationEntry{
		Version:     version.VersionNumber,
		Instruction: instruction,
		Timestamp:   time.Now().UTC(),
	})
	if err := s.store.SaveProjectData(ctx, pd); err != nil {
		log.Error("failed to save project data", zap.Error(err))
	}

	log.Info("site modified", zap.Int("version", version.VersionNumber))
	return &ModifyResult{Version: version, Instruction: rewritten}, nil
}

// ConversationView is a conversation with its project data and state.
type ConversationView struct {
	Conversation *models.Conversation
	ProjectData  *models.ProjectData
	State        State
}

func (s *SiteService) GetConversation(ctx context.Context, conversationID string) (*ConversationView, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, "conversation not found")
	}

	pd, err := s.store.GetProjectData(ctx, conversationID)
	if err != nil && !errors.Is(err, supabase.ErrNotFound) {
		return nil, storeError(err, "")
	}

	state, err := s.State(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &ConversationView{Conversation: conv, ProjectData: pd, State: state}, nil
}

// ListVersions returns the conversation's versions, newest first.
func (s *SiteService) ListVersions(ctx context.Context, conversationID string) ([]models.SiteVersion, error) {
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, storeError(err, "conversation not found")
	}
	versions, err := s.store.ListSiteVersions(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, "")
	}
	return versions, nil
}

// State reports the lifecycle state of a conversation.
func (s *SiteService) State(ctx context.Context, conversationID string) (State, error) {
	if st, ok := s.states.get(conversationID); ok {
		return st, nil
	}
	_, err := s.store.GetLatestSiteVersion(ctx, conversationID)
	switch {
	case err == nil:
		return StateStored, nil
	case errors.Is(err, supabase.ErrNotFound):
		return StateIdle, nil
	default:
		return "", storeError(err, "")
	}
}

func validateText(field, value string) error {
	if value == "" {
		return apperrors.Validation(field + " is required")
	}
	if utf8.RuneCountInString(value) > MaxPromptLength {
		return apperrors.Validation(field + " is too long")
	}
	return nil
}
