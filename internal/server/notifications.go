package server

import (
	"net/http"
)

func (s *Service) handleMyNotifications(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	notifications, err := s.notifications.NotificationsByUser(r.Context(), identity.UserID, unreadOnly, 50)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch notifications")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, notifications)
}

func (s *Service) handleMarkMyNotificationRead(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	notificationID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.notifications.MarkRead(r.Context(), notificationID, identity.UserID); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Marked as read"})
}
