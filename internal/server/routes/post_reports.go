package routes

import (
	"encoding/json"
	"net/http"

	"github.com/failsight/backend/internal/queue"
	"github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateReportHandler queues an asynchronous full-report job and returns its
// job ID. The worker archives the finished report to object storage.
func CreateReportHandler(c echo.Context) error {
	type createReportBody struct {
		Term     string   `json:"term" validate:"required"`
		Keywords []string `json:"keywords"`
		Limit    int      `json:"limit" validate:"omitempty,min=1,max=500"`
	}

	type createReportResponse struct {
		Message string `json:"message"`
		JobID   string `json:"job_id,omitempty"`
	}

	data := new(createReportBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createReportResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createReportResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createReportResponse{
			Message: "Unauthorized",
		})
	}

	jobID, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate job ID", "err", err)
		return c.JSON(http.StatusInternalServerError, createReportResponse{
			Message: "Internal server error",
		})
	}

	msg := queue.ReportJobMsg{
		JobID:       jobID,
		Term:        data.Term,
		Keywords:    data.Keywords,
		Limit:       data.Limit,
		RequestedBy: user.UserID,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal report job", "err", err)
		return c.JSON(http.StatusInternalServerError, createReportResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ReportQueue, msgBytes); err != nil {
		logger.Error("Failed to queue report job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, createReportResponse{
			Message: "Failed to queue report job",
		})
	}

	logger.Info("[API] Report job queued", "job_id", jobID, "term", data.Term, "user_id", user.UserID)

	return c.JSON(http.StatusAccepted, createReportResponse{
		Message: "Report job queued",
		JobID:   jobID,
	})
}
