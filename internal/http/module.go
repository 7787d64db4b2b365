// Package http assembles the HTTP server from self-registering modules.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared route groups for module registration.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is the /api/v1 route group. Authentication is handled upstream.
	V1 *gin.RouterGroup
}
