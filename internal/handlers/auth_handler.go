package handlers

import (
	"log"
	"net/http"

	"metrix-portal/internal/models"
	"metrix-portal/internal/services"
	"metrix-portal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.IAuthService
}

func NewAuthHandler(authService services.IAuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers all routes for the auth handler
func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	authGrPub := router.Group("/portal/public/api/v1")
	authGrPub.GET("/ping", h.Ping)
	authGrPub.POST("/login", h.Login)
	authGrPub.POST("/session/restore", h.Restore)
	authGrPub.POST("/logout", h.Logout)
}

func (h *AuthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("pong"))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "phone is required"))
		return
	}

	user, sessionID, err := h.authService.Login(c.Request.Context(), req.Phone)
	if err != nil {
		log.Println("login failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(models.LoginResponse{
		User:      *user,
		SessionID: sessionID,
	}))
}

// Restore silently re-establishes a remembered session. Best-effort: an
// unknown or broken session answers 200 with a null user, never an error,
// so app launches degrade to the logged-out state.
func (h *AuthHandler) Restore(c *gin.Context) {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		c.JSON(http.StatusOK, utils.CreateSuccessResponse(nil))
		return
	}

	user, _ := h.authService.Restore(c.Request.Context(), sessionID)
	if user == nil {
		c.JSON(http.StatusOK, utils.CreateSuccessResponse(nil))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(user))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		c.JSON(http.StatusOK, utils.CreateSuccessResponse("logged out"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
		log.Println("logout failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("logged out"))
}
