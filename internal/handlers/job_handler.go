package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/services"
)

// JobHandler exposes the background worker that renders invoice documents
// and keeps installment statuses current.
type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// @Summary Background job status
// @Description Render queue counters and the outcome of the last scheduled plan status refresh
// @Tags Jobs
// @Produce json
// @Success 200 {object} services.JobStatus
// @Security BearerAuth
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobs.GetStatus())
}
