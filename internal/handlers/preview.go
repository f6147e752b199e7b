package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"site-generator-backend/internal/services"
)

type PreviewHandler struct {
	sites *services.SiteService
}

func NewPreviewHandler(sites *services.SiteService) *PreviewHandler {
	return &PreviewHandler{sites: sites}
}

// Preview godoc
// @Summary     Preview a site version
// @Description Renders a stored version as sanitized, watermarked HTML. X-Preview-Lossy is true when JSX expressions could not be rendered statically.
// @Tags        preview
// @Produce     html
// @Param       site_id path string true "Site version ID"
// @Success     200 {string} string "HTML document"
// @Header      200 {string} X-Preview-Lossy "true when the conversion dropped content"
// @Failure     404 {object} models.ErrorResponse
// @Router      /preview/{site_id} [get]
func (h *PreviewHandler) Preview(c *gin.Context) {
	_, rendered, err := h.sites.Preview(c.Request.Context(), c.Param("site_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Preview-Lossy", strconv.FormatBool(rendered.Lossy))
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rendered.HTML))
}
