package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"metrix-portal/internal/models"
	"metrix-portal/internal/services"
	"metrix-portal/utils"

	"github.com/gin-gonic/gin"
)

// maxPhotoBytes caps the uploaded photo size at 10 MB.
const maxPhotoBytes = 10 << 20

type RequestHandler struct {
	requestService services.IRequestService
	middleware     *Middleware
}

func NewRequestHandler(requestService services.IRequestService, middleware *Middleware) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		middleware:     middleware,
	}
}

// RegisterRoutes registers all routes for the request handler
func (h *RequestHandler) RegisterRoutes(router *gin.Engine) {
	requestGr := router.Group("/portal/cabinet/api/v1", h.middleware.Identify())
	requestGr.POST("/requests", h.Submit)
	requestGr.GET("/requests", h.List)
	requestGr.GET("/requests/:id/photo", h.PhotoLink)
}

// Submit accepts a multipart form with the request fields and an optional
// photo. The photo, when present, must land in the blob store before any
// record is written.
func (h *RequestHandler) Submit(c *gin.Context) {
	reqType := models.RequestType(c.PostForm("type"))
	if !reqType.IsValid() {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "type must be one of: verification, repair, consultation, seal, account_attach, reading_submit, other"))
		return
	}

	in := services.SubmitInput{
		UserID:      userID(c),
		UserPhone:   userPhone(c),
		Type:        reqType,
		Details:     c.PostForm("details"),
		MeterSerial: c.PostForm("meter_serial"),
	}

	if raw := c.PostForm("reading"); raw != "" {
		reading, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "reading must be a number"))
			return
		}
		in.Reading = reading
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_PHOTO", err.Error()))
		return
	}
	in.Photo = photo

	request, err := h.requestService.Submit(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, models.ErrUploadFailed) {
			c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("PHOTO_UPLOAD_FAILED", "Could not store the photo, the request was not created"))
			return
		}
		log.Println("submit request failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(request))
}

func (h *RequestHandler) List(c *gin.Context) {
	requests, err := h.requestService.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		log.Println("list requests failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(requests))
}

// PhotoLink hands out a short-lived presigned URL for the photo attached
// to one of the caller's requests.
func (h *RequestHandler) PhotoLink(c *gin.Context) {
	link, err := h.requestService.PhotoLink(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, utils.CreateErrorResponse("REQUEST_NOT_FOUND", "No such service request"))
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NO_PHOTO", "This request has no photo attached"))
		default:
			log.Println("photo link failed:", err)
			c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		}
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"url": link}))
}

// readPhoto pulls the optional photo part out of the form. A missing part
// is not an error.
func (h *RequestHandler) readPhoto(c *gin.Context) (*services.PhotoAttachment, error) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("photo form part is malformed")
	}
	if fileHeader.Size > maxPhotoBytes {
		return nil, errors.New("photo exceeds the 10 MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("photo could not be read")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("photo could not be read")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &services.PhotoAttachment{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
