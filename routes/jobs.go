package routes

import (
	"errors"
	"net/http"

	"editais-platform/internal/jobs"
	"editais-platform/internal/scrapers"
	"editais-platform/internal/store"
	"editais-platform/middleware"
	"editais-platform/utils"

	"github.com/gin-gonic/gin"
)

func SetupJobRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, runner *jobs.Runner, jobStore *store.JobStore) {
	group := router.Group("/api/v1/jobs")
	group.Use(authMW.RequireAuth())

	// Kicks off a scrape-and-extract run for one source. The run
	// continues in the background; poll the status URL for progress.
	group.POST("/:source/execute", func(c *gin.Context) {
		source := c.Param("source")
		filterByDate := c.DefaultQuery("filter_by_date", "true") != "false"

		job, err := runner.StartJob(c.Request.Context(), source, scrapers.Options{FilterByDate: filterByDate}, jobs.TriggerManual)
		if err != nil {
			switch {
			case errors.Is(err, jobs.ErrUnknownSource):
				utils.RespondWithNotFound(c, "Unknown scraping source: "+source)
			case errors.Is(err, jobs.ErrSourceBusy):
				utils.RespondWithConflict(c, "A job for this source is already running", nil)
			default:
				utils.RespondWithInternalError(c, "Failed to start job", gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"job_id":     job.ID,
			"message":    "Job iniciado com sucesso",
			"status_url": "/api/v1/jobs/" + job.ID,
		})
	})

	group.GET("/:id", func(c *gin.Context) {
		job, err := jobStore.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondWithNotFound(c, "Job not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load job", nil)
			return
		}
		c.JSON(http.StatusOK, job)
	})

	group.GET("", func(c *gin.Context) {
		executions, err := jobStore.ListRecent(c.Request.Context(), 50)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list jobs", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": executions, "count": len(executions)})
	})

	group.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := runner.Cancel(id); err != nil {
			job, lookupErr := jobStore.GetByID(c.Request.Context(), id)
			if errors.Is(lookupErr, store.ErrNotFound) {
				utils.RespondWithNotFound(c, "Job not found")
				return
			}
			if lookupErr == nil && job.Finished() {
				utils.RespondWithConflict(c, "Job already finished", gin.H{"status": job.Status})
				return
			}
			utils.RespondWithInternalError(c, "Failed to cancel job", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cancelamento solicitado", "job_id": id})
	})
}
