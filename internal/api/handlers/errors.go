package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// respondError maps the error taxonomy to HTTP responses. Every failure
// carries a reason the shopper can act on; nothing is swallowed.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var validation *apperrors.ErrValidation
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"field":   validation.Field,
			"message": validation.Message,
		})
		return
	}

	var notFound *apperrors.ErrNotFound
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}

	var shortage *apperrors.ErrStockShortage
	if errors.As(err, &shortage) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     shortage.Error(),
			"shortages": shortage.Shortages,
		})
		return
	}

	var serverValidation *apperrors.ErrServerValidation
	if errors.As(err, &serverValidation) {
		// The commerce service's field messages pass through as-is.
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  serverValidation.Message,
			"fields": serverValidation.Fields,
		})
		return
	}

	var inProgress *apperrors.ErrSubmissionInProgress
	if errors.As(err, &inProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": inProgress.Error()})
		return
	}

	var transition *apperrors.ErrInvalidStateTransition
	if errors.As(err, &transition) {
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error()})
		return
	}

	var service *apperrors.ErrService
	if errors.As(err, &service) {
		logger.Error("Collaborator call failed",
			zap.String("stage", service.Stage),
			zap.Error(service.Err),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "a service we depend on is unavailable, please retry",
			"stage": service.Stage,
		})
		return
	}

	logger.Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
