package notification

import (
	"net/http"
	"strconv"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/middleware"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service DispatcherServiceInterface
}

func NewNotificationHandler(s DispatcherServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: s}
}

var _ NotificationHandlerInterface = (*NotificationHandler)(nil)

// CreateEvent accepts a domain event for fan-out and answers 202 once
// every delivery attempt is recorded.
func (h *NotificationHandler) CreateEvent(c *gin.Context) {
	var req dto.EventDTO
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	accepted, err := h.service.Accept(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusAccepted, accepted)
}

// Inbox lists the stored in-app notifications for a user, newest first.
func (h *NotificationHandler) Inbox(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.service.ListInbox(c.Request.Context(), userID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// UpdatePreference merges channel toggles for one (user, event type) pair.
func (h *NotificationHandler) UpdatePreference(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req dto.PreferenceDTO
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	if err := h.service.UpdatePreference(c.Request.Context(), userID, &req); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "preferences updated"})
}

// Stats reports delivery attempt counts grouped by channel and status.
func (h *NotificationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func userIDParam(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "user id must be a positive integer"})
		return 0, false
	}
	return uint(id64), true
}
