package routes

import (
	"errors"
	"net/http"

	"editais-platform/internal/chat"
	"editais-platform/internal/store"
	"editais-platform/middleware"
	"editais-platform/models"
	"editais-platform/utils"

	"github.com/gin-gonic/gin"
)

func SetupChatRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, chatService *chat.Service) {
	group := router.Group("/api/v1/chat/conversations")
	group.Use(authMW.RequireAuth())

	group.POST("", func(c *gin.Context) {
		var req models.CreateConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var editalUUID *string
		if req.EditalUUID != "" {
			editalUUID = &req.EditalUUID
		}

		conv, err := chatService.CreateConversation(c.Request.Context(), middleware.GetUserID(c), editalUUID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create conversation", nil)
			return
		}
		c.JSON(http.StatusCreated, conv)
	})

	group.GET("", func(c *gin.Context) {
		conversations, err := chatService.ListConversations(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list conversations", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": conversations, "count": len(conversations)})
	})

	group.GET("/:id", func(c *gin.Context) {
		conv, err := chatService.GetConversation(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
		if err != nil {
			respondChatError(c, err)
			return
		}
		c.JSON(http.StatusOK, conv)
	})

	group.DELETE("/:id", func(c *gin.Context) {
		if err := chatService.DeleteConversation(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
			respondChatError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Conversa removida"})
	})

	group.POST("/:id/messages", func(c *gin.Context) {
		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		resp, err := chatService.SendMessage(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Message, req.EditalUUID)
		if err != nil {
			respondChatError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})
}

func respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.RespondWithNotFound(c, "Conversation not found")
	case errors.Is(err, chat.ErrForbidden):
		utils.RespondWithForbidden(c, "Conversation belongs to another user")
	default:
		utils.RespondWithInternalError(c, "Chat request failed", gin.H{"error": err.Error()})
	}
}
