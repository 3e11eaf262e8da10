package response

import (
	"errors"
	"net/http"

	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/logger"
	"anoa.com/gemcert/pkg/validator"
	"github.com/gin-gonic/gin"
)

// ResponseError standardized error response
func ResponseError(c *gin.Context, log *logger.Logger, err error) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
		return
	}

	code := apperror.MapErrorToStatus(err)

	// Internal details stay in the log
	if code == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", err,
			)
		}
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
