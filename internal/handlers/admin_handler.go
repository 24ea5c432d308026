package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"metrix-portal/internal/models"
	"metrix-portal/internal/services"
	"metrix-portal/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	adminService   services.IAdminService
	requestService services.IRequestService
}

func NewAdminHandler(adminService services.IAdminService, requestService services.IRequestService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		requestService: requestService,
	}
}

// RegisterRoutes registers all routes for the admin handler. The group is
// expected to sit behind an external gateway that handles operator auth.
func (h *AdminHandler) RegisterRoutes(router *gin.Engine) {
	adminGr := router.Group("/portal/admin/api/v1")
	adminGr.GET("/users", h.ListUsers)
	adminGr.GET("/requests", h.ListRequests)
	adminGr.PATCH("/requests/:id/status", h.UpdateRequestStatus)
	adminGr.GET("/requests/:id/photo", h.RequestPhoto)
	adminGr.GET("/requests/export", h.ExportRequests)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		log.Println("admin list users failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(users))
}

func (h *AdminHandler) ListRequests(c *gin.Context) {
	requests, err := h.adminService.ListRequests(c.Request.Context())
	if err != nil {
		log.Println("admin list requests failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(requests))
}

func (h *AdminHandler) UpdateRequestStatus(c *gin.Context) {
	var req models.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "status is required"))
		return
	}
	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "unknown status"))
		return
	}

	request, err := h.requestService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, utils.CreateErrorResponse("REQUEST_NOT_FOUND", "No such service request"))
		case errors.Is(err, models.ErrInvalidTransition):
			c.JSON(http.StatusConflict, utils.CreateErrorResponse("INVALID_TRANSITION", "The request cannot move to that status"))
		default:
			log.Println("update request status failed:", err)
			c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(request))
}

// RequestPhoto hands out a short-lived presigned URL for a request photo,
// with no ownership restriction on the operator surface.
func (h *AdminHandler) RequestPhoto(c *gin.Context) {
	link, err := h.requestService.PhotoLink(c.Request.Context(), "", c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, utils.CreateErrorResponse("REQUEST_NOT_FOUND", "No such service request"))
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NO_PHOTO", "This request has no photo attached"))
		default:
			log.Println("admin photo link failed:", err)
			c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		}
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"url": link}))
}

// ExportRequests streams every service request as an XLSX workbook.
func (h *AdminHandler) ExportRequests(c *gin.Context) {
	data, err := h.adminService.ExportRequests(c.Request.Context())
	if err != nil {
		log.Println("export requests failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}

	filename := fmt.Sprintf("requests_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
