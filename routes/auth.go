package routes

import (
	"errors"
	"net/http"
	"time"

	"editais-platform/internal/config"
	"editais-platform/internal/store"
	"editais-platform/middleware"
	"editais-platform/models"
	"editais-platform/utils"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, users *store.UserStore, authMW *middleware.AuthMiddleware) {
	router.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		user, err := users.FindByUsername(c.Request.Context(), req.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.RespondWithUnauthorized(c, "Invalid username or password")
				return
			}
			utils.RespondWithInternalError(c, "Failed to look up user", nil)
			return
		}

		if !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		expiresIn := time.Duration(cfg.TokenExpireMin) * time.Minute
		token, err := utils.GenerateJWT(user.ID.Hex(), user.Username, user.Role, cfg.JWTSecret, expiresIn)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate token", nil)
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(expiresIn),
			User: models.UserInfo{
				ID:       user.ID.Hex(),
				Username: user.Username,
				Name:     user.Name,
				Role:     user.Role,
			},
		})
	})

	me := router.Group("/api/v1/auth")
	me.Use(authMW.RequireAuth())
	me.GET("/me", func(c *gin.Context) {
		user, err := users.FindByUsername(c.Request.Context(), c.GetString("username"))
		if err != nil {
			utils.RespondWithNotFound(c, "User not found")
			return
		}
		c.JSON(http.StatusOK, models.UserInfo{
			ID:       user.ID.Hex(),
			Username: user.Username,
			Name:     user.Name,
			Role:     user.Role,
		})
	})
}
