package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"site-generator-backend/internal/models"
	"site-generator-backend/internal/services"
)

type SitesHandler struct {
	sites *services.SiteService
}

func NewSitesHandler(sites *services.SiteService) *SitesHandler {
	return &SitesHandler{sites: sites}
}

// Generate godoc
// @Summary     Generate a site
// @Description Generates the first version of a site from a free-text prompt. Pass conversation_id to retry a conversation whose generation failed.
// @Tags        sites
// @Accept      json
// @Produce     json
// @Param       request body models.GenerateRequest true "Prompt"
// @Success     200 {object} models.GenerateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /generate [post]
func (h *SitesHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	version, err := h.sites.Generate(c.Request.Context(), services.GenerateInput{
		Prompt:         req.Prompt,
		ProjectType:    req.ProjectType,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{
		ConversationID: version.ConversationID,
		VersionID:      version.ID,
		Version:        version.VersionNumber,
		Code:           version.SiteCode,
	})
}

// Modify godoc
// @Summary     Modify a site
// @Description Applies an instruction to the latest version and stores the result as a new version
// @Tags        sites
// @Accept      json
// @Produce     json
// @Param       request body models.ModifyRequest true "Instruction"
// @Success     200 {object} models.ModifyResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /modify [post]
func (h *SitesHandler) Modify(c *gin.Context) {
	var req models.ModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.sites.Modify(c.Request.Context(), req.ConversationID, req.Instruction)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ModifyResponse{
		ConversationID: result.Version.ConversationID,
		VersionID:      result.Version.ID,
		Version:        result.Version.VersionNumber,
		Code:           result.Version.SiteCode,
		Instruction:    result.Instruction,
	})
}

// GetConversation godoc
// @Summary     Get a conversation
// @Description Returns the conversation with its business profile, modification history and generation state
// @Tags        conversations
// @Produce     json
// @Param       conversation_id path string true "Conversation ID"
// @Success     200 {object} models.ConversationResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /conversations/{conversation_id} [get]
func (h *SitesHandler) GetConversation(c *gin.Context) {
	view, err := h.sites.GetConversation(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	conv := view.Conversation
	response := models.ConversationResponse{
		ID:            conv.ID,
		InitialPrompt: conv.InitialPrompt,
		ProjectType:   conv.ProjectType,
		Status:        conv.Status,
		State:         string(view.State),
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
	}
	if view.ProjectData != nil {
		response.Profile = &view.ProjectData.Profile
		response.ModificationHistory = view.ProjectData.ModificationHistory
	}
	c.JSON(http.StatusOK, response)
}

// ListVersions godoc
// @Summary     List site versions
// @Description Lists the versions of a conversation, newest first, without code
// @Tags        conversations
// @Produce     json
// @Param       conversation_id path string true "Conversation ID"
// @Success     200 {object} models.VersionListResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /conversations/{conversation_id}/versions [get]
func (h *SitesHandler) ListVersions(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	versions, err := h.sites.ListVersions(c.Request.Context(), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.VersionSummary, 0, len(versions))
	for _, v := range versions {
		summaries = append(summaries, models.VersionSummary{
			ID:            v.ID,
			VersionNumber: v.VersionNumber,
			CreatedAt:     v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, models.VersionListResponse{
		ConversationID: conversationID,
		Versions:       summaries,
	})
}
