package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printbridge/internal/db"
)

type JobHandler struct {
	jobs *db.JobOperations
}

func NewJobHandler(jobs *db.JobOperations) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type ListJobsQuery struct {
	Status string `form:"status"`
	Kind   string `form:"kind"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ListJobs returns job history, newest first, with optional status and
// kind filters.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q ListJobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), db.JobFilter{
		Status: q.Status,
		Kind:   q.Kind,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	if jobs == nil {
		jobs = []*db.JobRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

// GetJob returns one job by its request id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")
	job, err := h.jobs.GetJobByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// JobStats returns per-status counts across the whole history.
func (h *JobHandler) JobStats(c *gin.Context) {
	counts, err := h.jobs.CountByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count jobs"})
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"by_status": counts,
	})
}
