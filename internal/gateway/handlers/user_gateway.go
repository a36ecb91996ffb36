package handlers

import (
	"context"
	"net/http"
	"time"

	users "inventory-system/internal/services/user/handler"

	"github.com/gin-gonic/gin"
)

type UserHTTPHandler struct {
	users *users.UserHandler
}

func NewUserHTTPHandler(userService *users.UserHandler) *UserHTTPHandler {
	return &UserHTTPHandler{
		users: userService,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *UserHTTPHandler) Register(c *gin.Context) {
	var req users.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.users.Register(ctx, req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("User registered", nil))
}

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	pair, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Login successful", pair))
}

func (h *UserHTTPHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	access, exp, err := h.users.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Token refreshed", map[string]interface{}{
		"access":            access,
		"access_expires_at": exp,
	}))
}

func (h *UserHTTPHandler) Me(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	me, err := h.users.Me(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("User retrieved successfully", me))
}
