package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JobStatusController reports a job without waiting for it.
type JobStatusController struct {
	Jobs JobDispatcher
}

func NewJobStatusController(jobs JobDispatcher) *JobStatusController {
	return &JobStatusController{Jobs: jobs}
}

func (h *JobStatusController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := withTimeout(c)
		defer cancel()
		job, err := h.Jobs.Status(ctx, c.Param("jobId"))
		if err != nil {
			writeError(c, err)
			return
		}
		writeJob(c, http.StatusOK, job)
	}
}
