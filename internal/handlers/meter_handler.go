package handlers

import (
	"errors"
	"log"
	"net/http"

	"metrix-portal/internal/models"
	"metrix-portal/internal/registry"
	"metrix-portal/internal/services"
	"metrix-portal/utils"

	"github.com/gin-gonic/gin"
)

type MeterHandler struct {
	resolverService services.IResolverService
	meterService    services.IMeterService
	middleware      *Middleware
}

func NewMeterHandler(resolverService services.IResolverService, meterService services.IMeterService, middleware *Middleware) *MeterHandler {
	return &MeterHandler{
		resolverService: resolverService,
		meterService:    meterService,
		middleware:      middleware,
	}
}

// RegisterRoutes registers all routes for the meter handler
func (h *MeterHandler) RegisterRoutes(router *gin.Engine) {
	meterGrPub := router.Group("/portal/public/api/v1")
	meterGrPub.GET("/meters/lookup", h.Lookup)

	cabinetGr := router.Group("/portal/cabinet/api/v1", h.middleware.Identify())
	cabinetGr.GET("/meters", h.ListCabinet)
	cabinetGr.POST("/meters", h.Attach)
	cabinetGr.DELETE("/meters/:id", h.Detach)
	cabinetGr.GET("/searches/recent", h.RecentSearches)
}

// Lookup resolves a serial or account number against the registry. Works
// for anonymous visitors; a logged-in caller (session header present and
// valid) additionally gets the search recorded in their recent list.
func (h *MeterHandler) Lookup(c *gin.Context) {
	value := c.Query("value")
	if value == "" {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "value query parameter is required"))
		return
	}

	kind := models.SearchKind(c.DefaultQuery("kind", string(models.SearchBySerial)))
	if kind != models.SearchBySerial && kind != models.SearchByAccount {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "kind must be serial or account"))
		return
	}

	meter, gen, err := h.resolverService.Resolve(c.Request.Context(), value, kind, h.optionalUserID(c))
	if err != nil {
		h.writeLookupError(c, value, err)
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(models.LookupResponse{
		Meter:       *meter,
		Generation:  gen,
		ContactLink: utils.MeterContactLink(meter),
	}))
}

func (h *MeterHandler) writeLookupError(c *gin.Context, value string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, utils.CreateDetailedErrorResponse(
			"METER_NOT_FOUND",
			"No meter matched the given identifier",
			models.LookupNotFoundResponse{
				Value:       value,
				ContactLink: utils.NotFoundContactLink(value, h.optionalUserPhone(c)),
			},
		))
		return
	}

	var transportErr *registry.TransportError
	if errors.As(err, &transportErr) {
		log.Println("registry lookup failed:", err)
		c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("REGISTRY_UNAVAILABLE", "The meter registry is unreachable"))
		return
	}

	log.Println("lookup error:", err)
	c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
}

func (h *MeterHandler) ListCabinet(c *gin.Context) {
	meters, err := h.meterService.List(c.Request.Context(), userID(c))
	if err != nil {
		log.Println("list meters failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(meters))
}

// Attach resolves the identifier and adds the meter to the caller's
// cabinet in one step.
func (h *MeterHandler) Attach(c *gin.Context) {
	var req models.AttachMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("INVALID_REQUEST", "value is required"))
		return
	}
	if req.Kind == "" {
		req.Kind = models.SearchBySerial
	}

	meter, _, err := h.resolverService.Resolve(c.Request.Context(), req.Value, req.Kind, userID(c))
	if err != nil {
		h.writeLookupError(c, req.Value, err)
		return
	}

	saved, err := h.meterService.Attach(c.Request.Context(), userID(c), meter)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateAttach) {
			c.JSON(http.StatusConflict, utils.CreateErrorResponse("ALREADY_ATTACHED", "This meter is already in your cabinet"))
			return
		}
		log.Println("attach failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(saved))
}

func (h *MeterHandler) Detach(c *gin.Context) {
	err := h.meterService.Detach(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.CreateErrorResponse("METER_NOT_FOUND", "No such meter in your cabinet"))
			return
		}
		log.Println("detach failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse("detached"))
}

func (h *MeterHandler) RecentSearches(c *gin.Context) {
	searches, err := h.resolverService.RecentSearches(c.Request.Context(), userID(c))
	if err != nil {
		log.Println("recent searches failed:", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(searches))
}

// optionalUserID reads the session header without requiring it, so the
// public lookup stays anonymous-friendly.
func (h *MeterHandler) optionalUserID(c *gin.Context) string {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		return ""
	}
	session, err := h.middleware.sessionRepo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		return ""
	}
	return session.UserID
}

func (h *MeterHandler) optionalUserPhone(c *gin.Context) string {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		return ""
	}
	session, err := h.middleware.sessionRepo.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		return ""
	}
	return session.Phone
}
