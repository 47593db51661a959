package v1

import (
	"github.com/gin-gonic/gin"

	httpHandler "go-roomchat/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, svc httpHandler.Services) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, svc)
}
