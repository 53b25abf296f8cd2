package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lostlink/pkg/types"

	"github.com/alexedwards/flow"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// pathID validates an identifier taken from the URL path. IDs are nanoids
// (or fixed seed IDs) and never longer than 64 characters.
func pathID(r *http.Request, name string) (string, error) {
	id := flow.Param(r.Context(), name)
	if id == "" || len(id) > 64 {
		return "", fmt.Errorf("malformed %s %q: %w", name, id, types.ErrInvalidID)
	}
	return id, nil
}

func (s *Service) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response payload")
	}
}

func (s *Service) respondError(w http.ResponseWriter, err error) {
	s.respondErrorStatus(w, statusForError(err), err.Error())
}

func (s *Service) respondErrorStatus(w http.ResponseWriter, statusCode int, detail string) {
	s.respondJSON(w, statusCode, errorResponse{Detail: detail})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrItemNotFound),
		errors.Is(err, types.ErrClaimNotFound),
		errors.Is(err, types.ErrUserNotFound),
		errors.Is(err, types.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// recordAudit persists an audit entry. Failures are logged, never surfaced;
// the mutation the entry describes has already been committed.
func (s *Service) recordAudit(ctx context.Context, identity Identity, targetType types.AuditTargetType, targetID string, detail types.AuditDetail) {
	entry, err := types.NewAuditLog(identity.UserID, identity.Name, targetType, targetID, detail, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("failed to build audit log entry")
		return
	}

	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.WithError(err).Error("failed to persist audit log entry")
	}
}

// notifyUser writes a notification for a single user, logging on failure.
func (s *Service) notifyUser(ctx context.Context, userID string, category types.NotificationCategory, title, message string, relatedID *string) {
	notification := &types.Notification{
		UserID:    userID,
		Category:  category,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}

	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to create notification")
	}
}

// notifyAdmins fans a notification out to every admin account.
func (s *Service) notifyAdmins(ctx context.Context, category types.NotificationCategory, title, message string, relatedID *string) {
	adminIDs, err := s.users.UserIDsByRole(ctx, types.RoleAdmin)
	if err != nil {
		s.logger.WithError(err).Error("failed to load admin ids for notification")
		return
	}

	for _, adminID := range adminIDs {
		s.notifyUser(ctx, adminID, category, title, message, relatedID)
	}
}
