package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"site-generator-backend/internal/models"
	"site-generator-backend/internal/services"
)

type DownloadHandler struct {
	sites *services.SiteService
}

func NewDownloadHandler(sites *services.SiteService) *DownloadHandler {
	return &DownloadHandler{sites: sites}
}

// IssueToken godoc
// @Summary     Issue a download token
// @Description Grants time-limited download access to a conversation's site. Called by the payment backend after checkout.
// @Tags        download
// @Produce     json
// @Security    Bearer
// @Param       conversation_id path string true "Conversation ID"
// @Success     200 {object} models.DownloadTokenResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /conversations/{conversation_id}/download-token [post]
func (h *DownloadHandler) IssueToken(c *gin.Context) {
	token, expiresAt, err := h.sites.IssueDownloadToken(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DownloadTokenResponse{Token: token, ExpiresAt: expiresAt})
}

// Download godoc
// @Summary     Download a site
// @Description Returns the latest version as a standalone HTML file when the token is valid
// @Tags        download
// @Produce     html
// @Param       token query string true "Download token"
// @Param       conversation_id query string false "Conversation the token must be bound to"
// @Success     200 {file} file "HTML document"
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /download [get]
func (h *DownloadHandler) Download(c *gin.Context) {
	dl, err := h.sites.Download(c.Request.Context(), c.Query("token"), c.Query("conversation_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("site-%s-v%d.html", dl.ConversationID, dl.Version)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", dl.HTML)
}
