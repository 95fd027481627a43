package engine

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/drummonds/pdfpages/database"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

var errOtherSession = errors.New("job belongs to another session")

// GetJob retrieves a job by ID
// @Summary Get job by ID
// @Description Retrieve details of a conversion, export or cleanup job. Jobs of other browser sessions are not found.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID (ULID)"
// @Success 200 {object} database.Job "Job details"
// @Failure 400 {object} ErrorResponse "Invalid job ID"
// @Failure 404 {object} ErrorResponse "Job not found"
// @Router /jobs/{id} [get]
func (serverHandler *ServerHandler) GetJob(c echo.Context) error {
	jobIDStr := c.Param("id")

	jobID, err := ulid.Parse(jobIDStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid job ID format",
		})
	}

	job, err := serverHandler.DB.GetJob(jobID)
	if err == nil && !job.VisibleTo(sessionFrom(c).ID.String()) {
		err = errOtherSession
	}
	if err != nil {
		Logger.Debug("Failed to get job", "jobID", jobIDStr, "error", err)
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: "Job not found",
		})
	}

	return c.JSON(http.StatusOK, job)
}

// GetRecentJobs retrieves recent jobs with pagination
// @Summary Get recent jobs
// @Description Retrieve this session's recent jobs and the housekeeping runs, newest first, optionally filtered by type
// @Tags Jobs
// @Accept json
// @Produce json
// @Param limit query int false "Number of jobs to return (default: 20, max: 100)"
// @Param offset query int false "Offset for pagination (default: 0)"
// @Param type query string false "Only jobs of this type: conversion, export or cleanup"
// @Success 200 {array} database.Job "List of jobs"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /jobs [get]
func (serverHandler *ServerHandler) GetRecentJobs(c echo.Context) error {
	limit := 20
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	query := database.JobQuery{
		SessionID: sessionFrom(c).ID.String(),
		Type:      database.JobType(c.QueryParam("type")),
	}
	jobs, err := serverHandler.DB.GetRecentJobs(query, limit, offset)
	if err != nil {
		Logger.Error("Failed to get recent jobs", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to retrieve jobs",
		})
	}

	return c.JSON(http.StatusOK, jobs)
}

// GetActiveJobs retrieves all currently running or pending jobs
// @Summary Get active jobs
// @Description Retrieve this session's jobs that are currently running or pending
// @Tags Jobs
// @Accept json
// @Produce json
// @Success 200 {array} database.Job "List of active jobs"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /jobs/active [get]
func (serverHandler *ServerHandler) GetActiveJobs(c echo.Context) error {
	jobs, err := serverHandler.DB.GetActiveJobs(database.JobQuery{SessionID: sessionFrom(c).ID.String()})
	if err != nil {
		Logger.Error("Failed to get active jobs", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to retrieve active jobs",
		})
	}

	return c.JSON(http.StatusOK, jobs)
}
