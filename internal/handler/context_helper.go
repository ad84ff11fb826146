package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seasonal-upkeep-api/internal/middleware"
)

// systemActor is recorded as updatedBy when a request carries no verified user.
const systemActor = "system"

func actorFromContext(c *gin.Context) string {
	claims, ok := middleware.Claims(c)
	if !ok || claims.UserID == "" {
		return systemActor
	}
	return claims.UserID
}
