package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lostlink/internal/lifecycle"
	"lostlink/internal/match"
	"lostlink/internal/store"
	"lostlink/pkg/types"
)

type dashboardStats struct {
	TotalLost           int64 `json:"total_lost"`
	TotalFound          int64 `json:"total_found"`
	PendingVerification int64 `json:"pending_verification"`
	AvailableItems      int64 `json:"available_items"`
	ReturnedToday       int64 `json:"returned_today"`
	HighRiskItems       int64 `json:"high_risk_items"`
	PendingClaims       int64 `json:"pending_claims"`
}

func (s *Service) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var stats dashboardStats
	var err error

	if stats.TotalLost, err = s.items.CountItems(ctx, store.ItemFilter{Type: types.ItemTypeLost}); err != nil {
		s.respondError(w, err)
		return
	}

	if stats.TotalFound, err = s.items.CountItems(ctx, store.ItemFilter{Type: types.ItemTypeFound}); err != nil {
		s.respondError(w, err)
		return
	}

	if stats.PendingVerification, err = s.items.CountItems(ctx, store.ItemFilter{Statuses: []types.ItemStatus{types.ItemStatusPending}}); err != nil {
		s.respondError(w, err)
		return
	}

	if stats.AvailableItems, err = s.items.CountItems(ctx, store.ItemFilter{Statuses: []types.ItemStatus{types.ItemStatusAvailable}}); err != nil {
		s.respondError(w, err)
		return
	}

	if stats.ReturnedToday, err = s.items.CountReturnedSince(ctx, time.Now().Add(-24*time.Hour)); err != nil {
		s.respondError(w, err)
		return
	}

	if stats.HighRiskItems, err = s.items.CountHighRisk(ctx); err != nil {
		s.respondError(w, err)
		return
	}

	if stats.PendingClaims, err = s.claims.CountClaims(ctx, types.ClaimStatusPending); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Service) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown := make(map[types.ItemCategory]int64, len(types.ItemCategories))

	for _, category := range types.ItemCategories {
		count, err := s.items.CountItems(r.Context(), store.ItemFilter{Category: category})
		if err != nil {
			s.respondError(w, err)
			return
		}
		breakdown[category] = count
	}

	s.respondJSON(w, http.StatusOK, breakdown)
}

func (s *Service) handleRecoveryRate(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.Items(r.Context(), store.ItemFilter{Type: types.ItemTypeFound})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch found items for recovery rate")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, lifecycle.ComputeRecoveryRate(items))
}

type searchRequest struct {
	Query    string `form:"query"`
	Category string `form:"category"`
	Status   string `form:"status"`
	ItemType string `form:"item_type"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

func (s *Service) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed search parameters")
		return
	}

	filter := store.ItemFilter{
		Query:    req.Query,
		Type:     types.ItemType(req.ItemType),
		Category: types.ItemCategory(req.Category),
		Limit:    200,
	}

	if req.Status != "" {
		filter.Statuses = []types.ItemStatus{types.ItemStatus(req.Status)}
	}

	if req.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, req.DateFrom)
		if err != nil {
			s.respondError(w, fmt.Errorf("date_from must be RFC3339: %w", types.ErrValidation))
			return
		}
		filter.DateFrom = &from
	}

	if req.DateTo != "" {
		to, err := time.Parse(time.RFC3339, req.DateTo)
		if err != nil {
			s.respondError(w, fmt.Errorf("date_to must be RFC3339: %w", types.ErrValidation))
			return
		}
		filter.DateTo = &to
	}

	items, err := s.items.Items(r.Context(), filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to search items")
		s.respondError(w, err)
		return
	}

	responses, err := s.itemResponses(r.Context(), items)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses)
}

// handleItemMatches pairs open FOUND items against open LOST reports for
// admin review. Candidates are computed on the fly and never stored.
func (s *Service) handleItemMatches(w http.ResponseWriter, r *http.Request) {
	found, err := s.items.Items(r.Context(), store.ItemFilter{
		Type:     types.ItemTypeFound,
		Statuses: types.OpenFoundStatuses,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch found items for matching")
		s.respondError(w, err)
		return
	}

	lost, err := s.items.Items(r.Context(), store.ItemFilter{
		Type:     types.ItemTypeLost,
		Statuses: []types.ItemStatus{types.ItemStatusOpen},
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch lost items for matching")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, match.Matches(found, lost))
}

type assignStorageRequest struct {
	StorageLocation string `json:"storage_location"`
	AdminRemarks    string `json:"admin_remarks"`
}

func (s *Service) handleAssignStorage(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	itemID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req assignStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	item, err := s.items.Item(r.Context(), itemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	expect := item.Status

	detail, err := lifecycle.VerifyAndStore(item, req.StorageLocation, req.AdminRemarks, identity.UserID, identity.Name, time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.items.UpdateItemGuarded(r.Context(), item, expect); err != nil {
		s.respondError(w, err)
		return
	}

	s.recordAudit(r.Context(), identity, types.AuditTargetItem, item.ID, detail)

	responses, err := s.itemResponses(r.Context(), []*types.Item{item})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses[0])
}

type handoverRequest struct {
	StudentID string `json:"student_id"`
	Remarks   string `json:"remarks"`
}

// handleHandoverItem stamps the physical return of a found item to the
// recipient student.
func (s *Service) handleHandoverItem(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	itemID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req handoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	item, err := s.items.Item(r.Context(), itemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	expect := item.Status

	detail, err := lifecycle.RecordHandover(item, req.StudentID, req.Remarks, identity.UserID, identity.Name, time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.items.UpdateItemGuarded(r.Context(), item, expect); err != nil {
		s.respondError(w, err)
		return
	}

	s.recordAudit(r.Context(), identity, types.AuditTargetItem, item.ID, detail)

	// Tell the approved claimant their item went out the door.
	if claim, err := s.claims.LatestClaimForItem(r.Context(), item.ID); err == nil && claim.Status == types.ClaimStatusApproved {
		s.notifyUser(r.Context(), claim.ClaimantID, types.NotificationHandover,
			"Item handed over",
			fmt.Sprintf("%s was handed over at the lost and found desk.", item.ReferenceID),
			&item.ID)
	}

	s.resolveLinkedLost(r.Context(), item)

	responses, err := s.itemResponses(r.Context(), []*types.Item{item})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses[0])
}

func (s *Service) handleArchiveItem(w http.ResponseWriter, r *http.Request) {
	s.disposeItem(w, r, lifecycle.Archive)
}

func (s *Service) handleDisposeItem(w http.ResponseWriter, r *http.Request) {
	s.disposeItem(w, r, lifecycle.Dispose)
}

func (s *Service) disposeItem(w http.ResponseWriter, r *http.Request, transition func(*types.Item, time.Time) (types.AuditDetail, error)) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	itemID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	item, err := s.items.Item(r.Context(), itemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	expect := item.Status

	detail, err := transition(item, time.Now())
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.items.UpdateItemGuarded(r.Context(), item, expect); err != nil {
		s.respondError(w, err)
		return
	}

	s.recordAudit(r.Context(), identity, types.AuditTargetItem, item.ID, detail)

	responses, err := s.itemResponses(r.Context(), []*types.Item{item})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses[0])
}

type linkItemsRequest struct {
	LostItemID string `json:"lost_item_id"`
}

// handleLinkItems ties a FOUND item to a LOST report, so resolving one
// closes the other when a claim is approved or the item is handed over.
func (s *Service) handleLinkItems(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req linkItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.LostItemID == "" {
		s.respondError(w, fmt.Errorf("lost_item_id is required: %w", types.ErrValidation))
		return
	}

	foundItem, err := s.items.Item(r.Context(), itemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	lostItem, err := s.items.Item(r.Context(), req.LostItemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if foundItem.Type != types.ItemTypeFound || lostItem.Type != types.ItemTypeLost {
		s.respondError(w, fmt.Errorf("a link pairs one FOUND item with one LOST item: %w", types.ErrValidation))
		return
	}

	now := time.Now()

	foundItem.LinkedItemID = &lostItem.ID
	foundItem.UpdatedAt = now
	if err := s.items.UpdateItemGuarded(r.Context(), foundItem, foundItem.Status); err != nil {
		s.respondError(w, err)
		return
	}

	lostItem.LinkedItemID = &foundItem.ID
	lostItem.UpdatedAt = now
	if err := s.items.UpdateItemGuarded(r.Context(), lostItem, lostItem.Status); err != nil {
		s.respondError(w, err)
		return
	}

	responses, err := s.itemResponses(r.Context(), []*types.Item{foundItem})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses[0])
}

type broadcastRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// handleBroadcast writes one notification per registered user so each
// recipient tracks their own read flag.
func (s *Service) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.Title == "" || req.Message == "" {
		s.respondError(w, fmt.Errorf("title and message are required: %w", types.ErrValidation))
		return
	}

	userIDs, err := s.users.AllUserIDs(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch broadcast recipients")
		s.respondError(w, err)
		return
	}

	if err := s.notifications.CreateBroadcast(r.Context(), userIDs, req.Title, req.Message, nil); err != nil {
		s.logger.WithError(err).Error("failed to create broadcast")
		s.respondError(w, err)
		return
	}

	s.recordAudit(r.Context(), identity, types.AuditTargetUser, identity.UserID, types.BroadcastDetail{
		Title:      req.Title,
		Recipients: len(userIDs),
	})

	s.respondJSON(w, http.StatusOK, map[string]int{"recipients": len(userIDs)})
}

type notificationTriggerRequest struct {
	UserID    string                     `json:"user_id"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Category  types.NotificationCategory `json:"category"`
	RelatedID *string                    `json:"related_id"`
}

func (s *Service) handleNotificationTrigger(w http.ResponseWriter, r *http.Request) {
	var req notificationTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.UserID == "" || req.Title == "" || req.Message == "" {
		s.respondError(w, fmt.Errorf("user_id, title and message are required: %w", types.ErrValidation))
		return
	}

	if req.Category == "" {
		req.Category = types.NotificationBroadcast
	}

	notification := &types.Notification{
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		Category:  req.Category,
		RelatedID: req.RelatedID,
	}

	if err := s.notifications.CreateNotification(r.Context(), notification); err != nil {
		s.logger.WithError(err).Error("failed to create notification")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, notification)
}

func (s *Service) handleAdminNotifications(w http.ResponseWriter, r *http.Request) {
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

func (s *Service) handleMarkAdminNotificationRead(w http.ResponseWriter, r *http.Request) {
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

type createAuditLogRequest struct {
	Action     types.AuditAction     `json:"action"`
	TargetType types.AuditTargetType `json:"target_type"`
	TargetID   string                `json:"target_id"`
	Details    json.RawMessage       `json:"details"`
}

// handleCreateAuditLog records a free-form audit entry for admin actions
// taken outside the API, e.g. a manual stock count.
func (s *Service) handleCreateAuditLog(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req createAuditLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	switch req.Action {
	case types.AuditActionLogin, types.AuditActionStorageAssigned,
		types.AuditActionClaimApproved, types.AuditActionClaimRejected,
		types.AuditActionHandover, types.AuditActionArchived,
		types.AuditActionDisposed, types.AuditActionStatusChanged,
		types.AuditActionBroadcast:
	default:
		s.respondError(w, fmt.Errorf("unknown audit action %q: %w", req.Action, types.ErrValidation))
		return
	}

	entry := &types.AuditLog{
		AdminID:    identity.UserID,
		AdminName:  identity.Name,
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Details:    req.Details,
		Timestamp:  time.Now(),
	}

	if err := s.audits.CreateAuditLog(r.Context(), entry); err != nil {
		s.logger.WithError(err).Error("failed to create audit log")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Service) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	var limit uint64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.respondError(w, fmt.Errorf("limit must be a positive integer: %w", types.ErrValidation))
			return
		}
		limit = parsed
	}

	logs, err := s.audits.AuditLogs(r.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch audit logs")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, logs)
}

func (s *Service) handleAdminProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	user, err := s.users.User(r.Context(), identity.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, user.Public())
}

func (s *Service) handleLoginHistory(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	history, err := s.audits.AuditLogsByAdminAction(r.Context(), identity.UserID, types.AuditActionLogin, 20)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch login history")
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, history)
}
