package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"site-generator-backend/internal/apperrors"
	"site-generator-backend/internal/logger"
	"site-generator-backend/internal/middleware"
	"site-generator-backend/internal/models"
)

// respondError writes err as models.ErrorResponse. Only the public message of
// an AppError reaches the client; causes are logged.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, models.ErrorResponse{Error: apperrors.PublicMessage(err)})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid request body",
		Message: err.Error(),
	})
}
