package routes

import (
	"net/http"

	"github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/internal/storage"
	"github.com/failsight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetReportHandler returns the archived report document for a job ID. A job
// still in flight has no archived document yet and yields 404.
func GetReportHandler(c echo.Context) error {
	jobID := c.Param("job_id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Missing job ID"})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3

	data, err := storage.GetReport(ctx, s3Client, jobID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Report not found"})
	}

	return c.JSONBlob(http.StatusOK, data)
}

// GetReportLinkHandler returns a short-lived presigned download link for an
// archived report.
func GetReportLinkHandler(c echo.Context) error {
	type reportLinkResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	jobID := c.Param("job_id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, reportLinkResponse{Message: "Missing job ID"})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3

	link, err := storage.GenerateDownloadLink(ctx, s3Client, jobID)
	if err != nil {
		logger.Error("Failed to generate report link", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, reportLinkResponse{
			Message: "Failed to generate download link",
		})
	}

	return c.JSON(http.StatusOK, reportLinkResponse{
		Message: "OK",
		URL:     link,
	})
}

// DeleteReportHandler removes an archived report.
func DeleteReportHandler(c echo.Context) error {
	jobID := c.Param("job_id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Missing job ID"})
	}

	ctx := c.Request().Context()
	s3Client := c.(*middleware.AppContext).App.S3

	if err := storage.DeleteReport(ctx, s3Client, jobID); err != nil {
		logger.Error("Failed to delete report", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to delete report"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Report deleted"})
}
