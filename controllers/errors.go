package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"commerce-sim/logger"
	"commerce-sim/services"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrOrderState):
		return http.StatusConflict
	case errors.Is(err, services.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrPayment):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes the error body for err. Unexpected errors are logged
// and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.LogError(c.Request.Context(), err, "Request failed", "path", c.FullPath())
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
