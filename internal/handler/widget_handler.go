package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
	"github.com/Nawaf-TBE/home-widget-platform/internal/metrics"
	"github.com/Nawaf-TBE/home-widget-platform/internal/service"
	"github.com/Nawaf-TBE/home-widget-platform/internal/transport/httpdto"
	platform_errors "github.com/Nawaf-TBE/home-widget-platform/pkg/errors"
)

type WidgetHandler struct {
	service *service.DeliveryService
}

func NewWidgetHandler(s *service.DeliveryService) *WidgetHandler {
	return &WidgetHandler{service: s}
}

// Deliver resolves a batch of widget keys for the authenticated requester.
// Pipeline lag is never an error here: whatever the store currently holds is
// what ships.
func (h *WidgetHandler) Deliver(c *gin.Context) {
	var req httpdto.DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Keys == nil {
		metrics.DeliveryRequests.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid keys", "INVALID_REQUEST"))
		return
	}

	requester, ok := service.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	records, err := h.service.Resolve(c.Request.Context(), req.Keys, requester)
	if err != nil {
		metrics.DeliveryRequests.WithLabelValues("error").Inc()
		if errors.Is(err, platform_errors.ErrServiceUnavailable) {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("service unavailable", "SERVICE_UNAVAILABLE"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
		return
	}

	metrics.DeliveryRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DeliveryResponse{
		Widgets: httpdto.FromWidgetRecordSlice(records),
	}))
}

// Home resolves the fixed home-screen widget set with user-to-default
// fallback.
func (h *WidgetHandler) Home(c *gin.Context) {
	requester, ok := service.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	platform := c.Query("platform")
	if platform == "" {
		platform = domain.PlatformWeb
	}

	records, err := h.service.HomeWidgets(c.Request.Context(), platform, requester.UserID)
	if err != nil {
		if errors.Is(err, platform_errors.ErrServiceUnavailable) {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("service unavailable", "SERVICE_UNAVAILABLE"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromWidgetRecordSlice(records)))
}

// AdminUpsert is the operator write path: straight to the store, cache entry
// invalidated, no event pipeline involved.
func (h *WidgetHandler) AdminUpsert(c *gin.Context) {
	requester, ok := service.IdentityFromContext(c.Request.Context())
	if !ok || !requester.IsAdmin() {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
		return
	}

	var req httpdto.UpsertWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	if !req.WidgetKey.Complete() || len(req.Content) == 0 || req.DataVersion < 1 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid widget", "INVALID_REQUEST"))
		return
	}

	record := &domain.WidgetRecord{
		WidgetKey:     req.WidgetKey,
		Content:       req.Content,
		SchemaVersion: req.SchemaVersion,
		DataVersion:   req.DataVersion,
	}
	if err := h.service.AdminUpsert(c.Request.Context(), record); err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(gin.H{"status": "success"}))
}
