package routes

import (
	"net/http"

	"github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/pkg/intel"

	"github.com/labstack/echo/v4"
)

// GetRegistryHandler lists the registered query definitions' metadata, in
// ranking priority order. Query bodies are not exposed.
func GetRegistryHandler(c echo.Context) error {
	type definitionInfo struct {
		Key         string     `json:"key"`
		DisplayName string     `json:"display_name"`
		Kind        intel.Kind `json:"kind"`
		Category    string     `json:"category"`
		Subcategory string     `json:"subcategory,omitempty"`
		Fields      []string   `json:"fields,omitempty"`
		ResultCap   int        `json:"result_cap,omitempty"`
		Ordering    string     `json:"ordering"`
		Priority    int        `json:"priority"`
	}

	type registryResponse struct {
		Definitions []definitionInfo `json:"definitions"`
		Count       int              `json:"count"`
	}

	registry := c.(*middleware.AppContext).App.Engine.Registry()

	defs := registry.Definitions()
	infos := make([]definitionInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, definitionInfo{
			Key:         def.Key,
			DisplayName: def.DisplayName,
			Kind:        def.Kind,
			Category:    def.Category,
			Subcategory: def.Subcategory,
			Fields:      def.Fields,
			ResultCap:   def.ResultCap,
			Ordering:    string(def.Ordering),
			Priority:    def.Priority(),
		})
	}

	return c.JSON(http.StatusOK, registryResponse{
		Definitions: infos,
		Count:       len(infos),
	})
}
