package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"site-generator-backend/internal/models"
	"site-generator-backend/internal/services"
)

type LeadsHandler struct {
	leads *services.LeadService
}

func NewLeadsHandler(leads *services.LeadService) *LeadsHandler {
	return &LeadsHandler{leads: leads}
}

// CreateLead godoc
// @Summary     Capture a lead
// @Description Stores the contact for a conversation, marks it completed and pushes the contact to the CRM
// @Tags        leads
// @Accept      json
// @Produce     json
// @Param       request body models.CreateLeadRequest true "Lead"
// @Success     201 {object} models.LeadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /leads [post]
func (h *LeadsHandler) CreateLead(c *gin.Context) {
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	lead, err := h.leads.CaptureLead(c.Request.Context(), services.CaptureLeadInput{
		ConversationID: req.ConversationID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.LeadResponse{
		ID:             lead.ID,
		ConversationID: lead.ConversationID,
		LeadQuality:    lead.LeadQuality,
		Status:         lead.Status,
		CreatedAt:      lead.CreatedAt,
	})
}

// CheckEmail godoc
// @Summary     Check an email
// @Description Validates an email address. Never reveals whether it was already captured.
// @Tags        leads
// @Accept      json
// @Produce     json
// @Param       request body models.CheckEmailRequest true "Email"
// @Success     200 {object} models.CheckEmailResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /leads/check-email [post]
func (h *LeadsHandler) CheckEmail(c *gin.Context) {
	var req models.CheckEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	available, err := h.leads.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CheckEmailResponse{Available: available})
}
