package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vidhyasrikachapalayam/visionassist/internal/domain"
)

// writeError maps the domain error taxonomy onto HTTP status codes. Nothing
// here is fatal; every failure degrades a single request.
func writeError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		deviceErr     *domain.DeviceError
		externalErr   *domain.ExternalServiceError
		inferenceErr  *domain.ModelInferenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoFaceDetected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &deviceErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &externalErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  err.Error(),
			"status": externalErr.Status,
		})
	case errors.As(err, &inferenceErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
