package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"inventory-system/internal/logger"
	"inventory-system/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const callerKey = "caller"

type CallerResolver interface {
	Resolve(ctx context.Context, userID int64) (utils.Caller, error)
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
}

// JWTAuth accepts only access tokens and resolves the caller from the store on
// every request, so deactivation and staff promotion take effect immediately.
func JWTAuth(jwt *utils.JWTUtil, resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := jwt.ParseToken(parts[1], utils.TokenTypeAccess)
		if err != nil {
			log.Debug("rejected token", zap.Error(err))
			unauthorized(c, "Invalid or expired token")
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), claims.UserId)
		if err != nil {
			if errors.Is(err, utils.ErrUnauthenticated) {
				unauthorized(c, "User not found or inactive")
				return
			}
			log.Error("failed to resolve caller", zap.Int64("user_id", claims.UserId), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller stored by JWTAuth.
func CallerFrom(c *gin.Context) (utils.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return utils.Caller{}, false
	}
	caller, ok := v.(utils.Caller)
	return caller, ok
}
