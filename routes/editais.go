package routes

import (
	"errors"
	"net/http"
	"strconv"

	"editais-platform/internal/store"
	"editais-platform/middleware"
	"editais-platform/services"
	"editais-platform/utils"

	"github.com/gin-gonic/gin"
)

func SetupEditalRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, editais *store.EditalStore, export *services.ExportService) {
	group := router.Group("/api/v1/editais")
	group.Use(authMW.RequireAuth())

	group.GET("", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		origem := c.Query("origem")

		items, total, err := editais.List(c.Request.Context(), origem, page, pageSize)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list editais", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"editais":   items,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	})

	// The export route must come before the id route so "export" is not
	// captured as an id.
	group.GET("/export", func(c *gin.Context) {
		if err := export.StreamXLSX(c); err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", gin.H{"error": err.Error()})
		}
	})

	group.GET("/:id", func(c *gin.Context) {
		edital, err := editais.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondWithNotFound(c, "Edital not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load edital", nil)
			return
		}
		c.JSON(http.StatusOK, edital)
	})
}
