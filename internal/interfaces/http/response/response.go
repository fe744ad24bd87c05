package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	domainerrors "agentmart.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Anything that is not an AppError maps to a
// generic 500 so internals never leak to the caller.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError("internal_error", err)
	}

	body := gin.H{
		"error":   appErr.Code,
		"message": appErr.Message,
	}
	if appErr.SuggestedAction != "" {
		body["suggestedAction"] = appErr.SuggestedAction
	}
	c.JSON(appErr.Status, body)
}
