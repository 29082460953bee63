package routes

import (
	"errors"
	"net/http"

	"github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/pkg/intel"
	"github.com/failsight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AskQuestionHandler answers one of the canonical stakeholder questions for a
// search term.
func AskQuestionHandler(c echo.Context) error {
	type questionBody struct {
		Question string   `json:"question" validate:"required"`
		Term     string   `json:"term" validate:"required"`
		Keywords []string `json:"keywords"`
	}

	type questionErrorResponse struct {
		Message string `json:"message"`
	}

	data := new(questionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, questionErrorResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, questionErrorResponse{
			Message: "Invalid request body",
		})
	}

	question, err := intel.ParseQuestion(data.Question)
	if err != nil {
		return c.JSON(http.StatusBadRequest, questionErrorResponse{
			Message: "Unknown question",
		})
	}

	ctx := c.Request().Context()
	engine := c.(*middleware.AppContext).App.Engine

	answer, err := engine.AnswerQuestion(ctx, question, data.Term, data.Keywords)
	if err != nil {
		switch {
		case errors.Is(err, intel.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, questionErrorResponse{
				Message: "Invalid search term",
			})
		case errors.Is(err, intel.ErrStoreUnavailable):
			logger.Error("[API] Question failed, store unavailable", "question", question, "err", err)
			return c.JSON(http.StatusServiceUnavailable, questionErrorResponse{
				Message: "Search backend unavailable",
			})
		default:
			logger.Error("[API] Question failed", "question", question, "err", err)
			return c.JSON(http.StatusInternalServerError, questionErrorResponse{
				Message: "Internal server error",
			})
		}
	}

	return c.JSON(http.StatusOK, answer)
}
