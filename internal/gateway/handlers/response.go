package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-system/internal/gateway/middleware"
	"inventory-system/internal/logger"
	"inventory-system/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Meta    interface{}       `json:"meta,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// respondError maps service errors onto status codes. Anything outside the
// error taxonomy is logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		verr *utils.ValidationError
		nf   *utils.NotFoundError
		perr *utils.PermissionError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: verr.Message,
			Errors:  map[string]string{verr.Field: verr.Message},
		})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, errorResponse(nf.Error()))
	case errors.As(err, &perr):
		c.JSON(http.StatusForbidden, errorResponse(perr.Message))
	case errors.Is(err, utils.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid credentials"))
	default:
		logger.FromGin(c).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}

func parseID(c *gin.Context, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid "+resource+" ID"))
		return 0, false
	}
	return id, true
}

func mustCaller(c *gin.Context) (utils.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Authentication required"))
		return utils.Caller{}, false
	}
	return caller, true
}
