package server

import (
	"github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Intelligence search routes
	apiRoutes.POST("/intel/search", routes.SearchHandler, middleware.RequirePermission("intel.search"))
	apiRoutes.POST("/intel/question", routes.AskQuestionHandler, middleware.RequirePermission("intel.ask"))
	apiRoutes.GET("/intel/registry", routes.GetRegistryHandler, middleware.RequireAnyPermission("intel.registry:view", "intel.search"))

	// Report routes
	apiRoutes.POST("/reports", routes.CreateReportHandler, middleware.RequirePermission("report.create"))
	apiRoutes.GET("/reports/:job_id", routes.GetReportHandler, middleware.RequirePermission("report.view"))
	apiRoutes.GET("/reports/:job_id/link", routes.GetReportLinkHandler, middleware.RequirePermission("report.view"))
	apiRoutes.DELETE("/reports/:job_id", routes.DeleteReportHandler, middleware.RequirePermission("report.delete"))
}
