package handlers

import (
	"context"
	"net/http"
	"time"

	"inventory-system/internal/health"

	"github.com/gin-gonic/gin"
)

type HealthHTTPHandler struct {
	checker *health.Checker
}

func NewHealthHTTPHandler(checker *health.Checker) *HealthHTTPHandler {
	return &HealthHTTPHandler{checker: checker}
}

func statusCode(report health.Report) int {
	if report.Status == health.StatusUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *HealthHTTPHandler) Health(c *gin.Context) {
	report := h.checker.Check(c.Request.Context())

	unavailable := []string{}
	for _, name := range h.checker.Names() {
		if report.Components[name].Status != health.StatusHealthy {
			unavailable = append(unavailable, name)
		}
	}

	c.JSON(statusCode(report), gin.H{
		"status":               report.Status,
		"message":              "Server is running",
		"unavailable_services": unavailable,
		"timestamp":            report.Timestamp,
	})
}

func (h *HealthHTTPHandler) Detailed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	report := h.checker.Check(ctx)
	c.JSON(statusCode(report), report)
}
