package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/notification"
)

const notificationNotFound = "Notification not found"

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	notifications *notification.Service
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) caller(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := db.ParseID(claims.UserID)
	if err != nil {
		writeMsg(w, http.StatusUnauthorized, "Invalid token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// List returns the caller's latest notifications and unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	result, err := h.notifications.List(r.Context(), user, r.URL.Query().Get("unreadOnly") == "true")
	if err != nil {
		writeServiceError(w, r, err, notificationNotFound, "Server error fetching notifications")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MarkRead marks one notification read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if _, err := h.notifications.MarkRead(r.Context(), r.PathValue("id"), user); err != nil {
		writeServiceError(w, r, err, notificationNotFound, "Server error updating notification")
		return
	}
	writeMsg(w, http.StatusOK, "Notification marked as read")
}

// MarkAllRead marks every notification of the caller read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), user); err != nil {
		writeServiceError(w, r, err, notificationNotFound, "Server error updating notifications")
		return
	}
	writeMsg(w, http.StatusOK, "All notifications marked as read")
}

// Delete removes one notification.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.notifications.Delete(r.Context(), r.PathValue("id"), user); err != nil {
		writeServiceError(w, r, err, notificationNotFound, "Server error deleting notification")
		return
	}
	writeMsg(w, http.StatusOK, "Notification deleted")
}
