// Package api exposes the overlap engine over HTTP: contract uploads, job
// polling, report generation, and new-ZIP matching. The UI (or curl) is an
// external collaborator that supplies raw tabular input and consumes the
// generated tables.
package api

import (
	stderrors "errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FedeHorus/zipreport/internal/engine"
	"github.com/FedeHorus/zipreport/internal/errors"
	"github.com/FedeHorus/zipreport/internal/ingest"
	"github.com/FedeHorus/zipreport/model"
	"github.com/FedeHorus/zipreport/services"
)

// maxUploadSize bounds contract and ZIP-list uploads (256 MiB).
const maxUploadSize = 256 << 20

// API holds dependencies for API handlers, primarily the overlap engine.
type API struct {
	engine services.OverlapEngine
	jobs   services.JobTracker
}

// NewAPI creates a new API handler structure.
func NewAPI(eng services.OverlapEngine, tracker services.JobTracker) *API {
	return &API{engine: eng, jobs: tracker}
}

// SetupRoutes defines all the API routes for the overlap engine.
func SetupRoutes(router *gin.Engine, eng *engine.Engine) {
	apiHandler := NewAPI(eng, eng)

	router.Use(CORSMiddleware())
	router.Use(RequestSizeLimitMiddleware(maxUploadSize))

	router.GET("/health", apiHandler.HealthCheckHandler)

	apiRoutes := router.Group("/api")
	{
		apiRoutes.POST("/contracts/load", apiHandler.LoadContractsHandler)
		apiRoutes.GET("/summary", apiHandler.GetSummaryHandler)
		apiRoutes.POST("/reports", apiHandler.GenerateReportsHandler)
		apiRoutes.POST("/zips/match", apiHandler.MatchZipsHandler)

		jobRoutes := apiRoutes.Group("/jobs")
		{
			jobRoutes.GET("", apiHandler.ListJobsHandler)
			jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)
			jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
		}
	}
}

// HealthCheckHandler reports service liveness.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LoadContractsHandler accepts a multipart contract file upload and starts an
// asynchronous load job. The previous index stays queryable until the new
// load succeeds.
func (api *API) LoadContractsHandler(c *gin.Context) {
	src, err := api.sourceFromUpload(c, "file")
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}

	jobID, err := api.engine.LoadAsync(src)
	if err != nil {
		_ = src.Close()
		SendError(c, http.StatusInternalServerError, ErrorCodeLoadFailed,
			"Failed to start load job: "+err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "accepted",
		"job_id": jobID,
	})
}

// GetSummaryHandler returns the per-contract overlap summary as JSON.
func (api *API) GetSummaryHandler(c *gin.Context) {
	summaries, active, err := api.engine.Summary()
	if err != nil {
		if stderrors.Is(err, errors.ErrEmptyIndex) {
			SendEmptyIndexError(c)
			return
		}
		SendInternalError(c, "summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts":     summaries,
		"active_counts": active,
	})
}

// GenerateReportsHandler renders all report artifacts from the current
// snapshot.
func (api *API) GenerateReportsHandler(c *gin.Context) {
	info, err := api.engine.GenerateReports()
	if err != nil {
		if stderrors.Is(err, errors.ErrEmptyIndex) {
			SendEmptyIndexError(c)
			return
		}
		SendError(c, http.StatusInternalServerError, ErrorCodeReportFailed,
			"Report generation failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, info)
}

// MatchZipsHandler matches an uploaded ZIP list against the current index.
// An optional "buyer" form field keeps only rows whose buyer name contains
// the substring.
func (api *API) MatchZipsHandler(c *gin.Context) {
	src, err := api.sourceFromUpload(c, "file")
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}
	defer func() { _ = src.Close() }()

	result, err := api.engine.MatchZips(src, c.PostForm("buyer"))
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrEmptyIndex):
			SendEmptyIndexError(c)
		case stderrors.Is(err, errors.ErrNoMatches):
			SendError(c, http.StatusNotFound, ErrorCodeNoMatches,
				"No input ZIP is claimed by any contract; no report was produced")
		case stderrors.Is(err, errors.ErrSchema):
			SendSchemaError(c, err)
		default:
			SendError(c, http.StatusInternalServerError, ErrorCodeMatchFailed,
				"ZIP matching failed: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetJobHandler returns the status of a background job.
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists background jobs, optionally filtered by status.
func (api *API) ListJobsHandler(c *gin.Context) {
	var status *model.JobStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := model.JobStatus(statusStr)
		status = &s
	}

	jobs := api.jobs.ListJobs(status)
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": len(jobs)})
}

// GetJobMetricsHandler returns job execution counters.
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	if concreteEngine, ok := api.engine.(*engine.Engine); ok {
		c.JSON(http.StatusOK, concreteEngine.JobMetrics())
		return
	}
	SendError(c, http.StatusNotFound, ErrorCodeInvalidRequest, "Job metrics unavailable")
}

// sourceFromUpload saves the multipart upload to a temporary file and opens
// it as a row source. The returned source removes the temporary file on
// Close, so async jobs can outlive the request.
func (api *API) sourceFromUpload(c *gin.Context, field string) (services.RowSource, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing upload field %q: %w", field, err)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, fmt.Errorf("unsupported upload type %q (want .csv or .xlsx)", ext)
	}

	tmpPath := filepath.Join(os.TempDir(), "zipreport-upload-"+uuid.New().String()+ext)
	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	src, err := ingest.OpenFile(tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}
	log.Printf("Stored upload %s (%d bytes) at %s", fileHeader.Filename, fileHeader.Size, tmpPath)
	return &uploadSource{RowSource: src, path: tmpPath}, nil
}

// uploadSource wraps a RowSource over a temporary upload file and removes the
// file once the source is closed.
type uploadSource struct {
	services.RowSource
	path string
}

func (u *uploadSource) Close() error {
	err := u.RowSource.Close()
	if removeErr := os.Remove(u.path); removeErr != nil && err == nil {
		err = removeErr
	}
	return err
}
