package routes

import (
	"errors"
	"net/http"

	"github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/pkg/intel"
	"github.com/failsight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SearchHandler fans the search term out across the query definition registry
// and returns the ranked intelligence report.
func SearchHandler(c echo.Context) error {
	type searchBody struct {
		Term     string   `json:"term" validate:"required"`
		Keywords []string `json:"keywords"`
		Limit    int      `json:"limit" validate:"omitempty,min=1,max=500"`
	}

	type searchErrorResponse struct {
		Message string `json:"message"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchErrorResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchErrorResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	engine := c.(*middleware.AppContext).App.Engine

	report, err := engine.Search(ctx, data.Term, data.Keywords, data.Limit)
	if err != nil {
		switch {
		case errors.Is(err, intel.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, searchErrorResponse{
				Message: "Invalid search term",
			})
		case errors.Is(err, intel.ErrStoreUnavailable):
			logger.Error("[API] Search failed, store unavailable", "term", data.Term, "err", err)
			return c.JSON(http.StatusServiceUnavailable, searchErrorResponse{
				Message: "Search backend unavailable",
			})
		default:
			logger.Error("[API] Search failed", "term", data.Term, "err", err)
			return c.JSON(http.StatusInternalServerError, searchErrorResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusOK, report)
}
