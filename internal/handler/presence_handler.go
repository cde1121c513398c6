package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence-service/internal/ws"
)

// Directory is the reporting surface's view of the user directory
type Directory interface {
	GetLastActive(ctx context.Context, userID int64) (*time.Time, error)
}

// PresenceHandler serves the REST reporting endpoints over the live
// registry and the persisted last-active store.
type PresenceHandler struct {
	registry  *ws.Registry
	directory Directory
	logger    *zap.Logger
}

func NewPresenceHandler(registry *ws.Registry, directory Directory, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		registry:  registry,
		directory: directory,
		logger:    logger,
	}
}

// UserStatusResponse is a single user's presence snapshot
type UserStatusResponse struct {
	UserID     int64      `json:"userId"`
	Online     bool       `json:"online"`
	LastActive *time.Time `json:"lastActive,omitempty"`
}

// GetOnlineUsers godoc
// @Summary      Online users
// @Description  Returns the ids of all users with at least one live connection
// @Tags         presence
// @Security     BearerAuth
// @Success      200 {object} map[string][]int64
// @Router       /presence/online [get]
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	userIDs := h.registry.OnlineUsers()
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	c.JSON(http.StatusOK, gin.H{"userIds": userIDs})
}

// GetUserStatus godoc
// @Summary      User status
// @Description  Returns a user's online flag and last-active timestamp
// @Tags         presence
// @Security     BearerAuth
// @Param        userId path int true "User ID"
// @Success      200 {object} UserStatusResponse
// @Failure      400 {object} map[string]interface{}
// @Router       /presence/status/{userId} [get]
func (h *PresenceHandler) GetUserStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "BAD_REQUEST", "message": "Invalid user ID"},
		})
		return
	}

	lastActive, err := h.directory.GetLastActive(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get last-active",
			zap.Int64("userId", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Failed to get user status"},
		})
		return
	}

	c.JSON(http.StatusOK, UserStatusResponse{
		UserID:     userID,
		Online:     h.registry.IsOnline(userID),
		LastActive: lastActive,
	})
}
