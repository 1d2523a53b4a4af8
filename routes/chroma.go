package routes

import (
	"net/http"
	"strconv"

	"editais-platform/internal/vectorstore"
	"editais-platform/middleware"
	"editais-platform/utils"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Query      string `json:"query" binding:"required,min=1"`
	K          int    `json:"k,omitempty"`
	EditalUUID string `json:"edital_uuid,omitempty"`
}

// SetupChromaRoutes exposes the vector collection for inspection and
// maintenance.
func SetupChromaRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, index *vectorstore.Index) {
	group := router.Group("/api/chroma")
	group.Use(authMW.RequireAuth())

	group.GET("/documents", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		result, err := index.GetAll(c.Request.Context(), limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read collection", gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ids":       result.IDs,
			"documents": result.Documents,
			"metadatas": result.Metadatas,
			"count":     len(result.IDs),
		})
	})

	group.GET("/stats", func(c *gin.Context) {
		stats, err := index.Stats(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to compute stats", gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	group.POST("/search", func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if req.K < 1 {
			req.K = 5
		}

		var where map[string]interface{}
		if req.EditalUUID != "" {
			where = map[string]interface{}{"edital_uuid": req.EditalUUID}
		}

		results, err := index.Search(c.Request.Context(), req.Query, req.K, where)
		if err != nil {
			utils.RespondWithInternalError(c, "Search failed", gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
	})

	group.DELETE("/editais/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := index.DeleteByEdital(c.Request.Context(), id); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete edital chunks", gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Chunks removidos", "edital_uuid": id})
	})
}
