// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/api/health", h.HandleHealth)

	e.POST("/api/documents", h.HandleUploadDocument)
	e.GET("/api/session", h.HandleSession)
	e.GET("/api/result", h.HandleCurrentResult)

	historyGroup := e.Group("/api/history")
	historyGroup.GET("", h.HandleHistory)
	historyGroup.GET("/export", h.HandleExportHistory)
	historyGroup.GET("/:id", h.HandleHistoryEntry)
	historyGroup.POST("/:id/select", h.HandleSelectHistory)
}

// SetupMiddleware configures common middleware.
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
