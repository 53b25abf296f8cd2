package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"lostlink/internal/lifecycle"
	"lostlink/internal/store"
	"lostlink/internal/utils"
	"lostlink/pkg/types"
)

const maxUploadBytes = 10 << 20

// itemResponse is an item with its reporter attached and image key resolved
// to a fetchable URL.
type itemResponse struct {
	*types.Item
	User     *types.PublicUser `json:"user,omitempty"`
	ImageURL string            `json:"imageUrl,omitempty"`

	// my-requests decorations
	IsReport  bool               `json:"isReport,omitempty"`
	IsClaim   bool               `json:"isClaim,omitempty"`
	UserClaim *userClaimResponse `json:"userClaim,omitempty"`
}

// userClaimResponse is the reporter-facing slice of a claim, shown on the
// my-requests view so the reporter can see how their item was claimed.
type userClaimResponse struct {
	ReferenceID         string            `json:"referenceId"`
	VerificationDetails string            `json:"verificationDetails"`
	ProofURL            string            `json:"proofUrl,omitempty"`
	Status              types.ClaimStatus `json:"status"`
	SubmittedAt         time.Time         `json:"submittedAt"`
}

func (s *Service) handleReportItem(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	itemType := types.ItemType(r.FormValue("type"))
	if itemType != types.ItemTypeLost && itemType != types.ItemTypeFound {
		s.respondError(w, fmt.Errorf("type must be LOST or FOUND: %w", types.ErrValidation))
		return
	}

	category := types.ItemCategory(r.FormValue("category"))
	if !types.ValidCategory(category) {
		s.respondError(w, fmt.Errorf("unknown category %q: %w", category, types.ErrValidation))
		return
	}

	description := r.FormValue("description")
	location := r.FormValue("location")
	if description == "" || location == "" {
		s.respondError(w, fmt.Errorf("description and location are required: %w", types.ErrValidation))
		return
	}

	now := time.Now()

	// The initial status is derived from the type, never taken from the
	// client. LOST reports sit OPEN until resolved; FOUND reports sit
	// PENDING until an admin verifies and stores them.
	status := types.ItemStatusOpen
	prefix := "LOST"
	if itemType == types.ItemTypeFound {
		status = types.ItemStatusPending
		prefix = "FND"
	}

	item := &types.Item{
		ReferenceID: utils.ReferenceID(prefix, now),
		UserID:      identity.UserID,
		Type:        itemType,
		Category:    category,
		Description: description,
		Location:    location,
		Status:      status,
		ReportedAt:  now,
	}

	if reportedAt := r.FormValue("dateTime"); reportedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, reportedAt); err == nil {
			item.ReportedAt = parsed
		}
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()

		key, err := s.objects.Upload(r.Context(), "items", header.Filename, file, header.Header.Get("Content-Type"))
		if err != nil {
			s.logger.WithError(err).Error("failed to upload item image")
			s.respondError(w, err)
			return
		}

		item.ImageKey = &key
	}

	if err := s.items.CreateItem(r.Context(), item); err != nil {
		s.logger.WithError(err).Error("failed to create item")
		s.respondError(w, err)
		return
	}

	if itemType == types.ItemTypeFound {
		s.notifyAdmins(r.Context(), types.NotificationNewFoundItem,
			"New found item reported",
			fmt.Sprintf("%s: %s reported found at %s", item.ReferenceID, item.Description, item.Location),
			&item.ID)

		for _, highRisk := range types.HighRiskCategories {
			if category == highRisk {
				s.notifyAdmins(r.Context(), types.NotificationHighValueItem,
					"High value item awaiting verification",
					fmt.Sprintf("%s: a %s item needs secure storage", item.ReferenceID, item.Category),
					&item.ID)
				break
			}
		}
	}

	responses, err := s.itemResponses(r.Context(), []*types.Item{item})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, responses[0])
}

func (s *Service) handleItemFeed(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.Items(r.Context(), store.ItemFilter{
		Statuses: []types.ItemStatus{types.ItemStatusPending, types.ItemStatusOpen, types.ItemStatusAvailable},
		Limit:    100,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch item feed")
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

func (s *Service) handleFoundItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.Items(r.Context(), store.ItemFilter{
		Type:     types.ItemTypeFound,
		Statuses: types.OpenFoundStatuses,
		Limit:    100,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch found items")
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

func (s *Service) handleLostItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.Items(r.Context(), store.ItemFilter{
		Type:     types.ItemTypeLost,
		Statuses: []types.ItemStatus{types.ItemStatusOpen},
		Limit:    100,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch lost items")
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

// handleMyRequests merges the caller's own reports with items they have
// claimed into a single reverse-chronological list.
func (s *Service) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	reported, err := s.items.Items(r.Context(), store.ItemFilter{UserID: identity.UserID})
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch reported items")
		s.respondError(w, err)
		return
	}

	responses, err := s.itemResponses(r.Context(), reported)
	if err != nil {
		s.respondError(w, err)
		return
	}

	seen := make(map[string]struct{}, len(reported))
	for i, item := range reported {
		seen[item.ID] = struct{}{}
		responses[i].IsReport = true

		// Show the reporter how their item was claimed, if it was.
		claim, err := s.claims.LatestClaimForItem(r.Context(), item.ID)
		if err != nil {
			continue
		}
		responses[i].UserClaim = s.userClaimResponse(r.Context(), claim)
	}

	// Items the caller claimed but did not report.
	claims, err := s.claims.ClaimsByClaimant(r.Context(), identity.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch claimant claims")
		s.respondError(w, err)
		return
	}

	for _, claim := range claims {
		if _, ok := seen[claim.ItemID]; ok {
			continue
		}
		seen[claim.ItemID] = struct{}{}

		item, err := s.items.Item(r.Context(), claim.ItemID)
		if err != nil {
			s.logger.WithError(err).WithField("item_id", claim.ItemID).Warn("claimed item missing")
			continue
		}

		claimed, err := s.itemResponses(r.Context(), []*types.Item{item})
		if err != nil {
			s.respondError(w, err)
			return
		}

		claimed[0].IsClaim = true
		claimed[0].UserClaim = s.userClaimResponse(r.Context(), claim)
		responses = append(responses, claimed[0])
	}

	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].ReportedAt.After(responses[j].ReportedAt)
	})

	s.respondJSON(w, http.StatusOK, responses)
}

type overrideStatusRequest struct {
	Status types.ItemStatus `json:"status"`
}

// handleOverrideItemStatus applies a manual admin status change, guarded by
// the status the item had when read.
func (s *Service) handleOverrideItemStatus(w http.ResponseWriter, r *http.Request) {
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

	var req overrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed request body")
		return
	}

	switch req.Status {
	case types.ItemStatusOpen, types.ItemStatusPending, types.ItemStatusAvailable,
		types.ItemStatusClaimed, types.ItemStatusReturned, types.ItemStatusResolved,
		types.ItemStatusArchived, types.ItemStatusDisposed:
	default:
		s.respondError(w, fmt.Errorf("unknown status %q: %w", req.Status, types.ErrValidation))
		return
	}

	item, err := s.items.Item(r.Context(), itemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	expect := item.Status

	detail, err := lifecycle.OverrideStatus(item, req.Status, time.Now())
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

// itemResponses attaches reporters in one batched lookup and resolves image
// keys to presigned URLs.
func (s *Service) itemResponses(ctx context.Context, items []*types.Item) ([]*itemResponse, error) {
	userIDs := make([]string, 0, len(items))
	for _, item := range items {
		userIDs = append(userIDs, item.UserID)
	}

	users, err := s.users.UsersByIDs(ctx, userIDs)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch item reporters")
		return nil, err
	}

	responses := make([]*itemResponse, 0, len(items))
	for _, item := range items {
		resp := &itemResponse{Item: item, User: users[item.UserID].Public()}

		if item.ImageKey != nil {
			url, err := s.objects.PresignedURL(ctx, *item.ImageKey)
			if err != nil {
				s.logger.WithError(err).WithField("key", *item.ImageKey).Warn("failed to presign item image")
			} else {
				resp.ImageURL = url
			}
		}

		responses = append(responses, resp)
	}

	return responses, nil
}

func (s *Service) userClaimResponse(ctx context.Context, claim *types.Claim) *userClaimResponse {
	resp := &userClaimResponse{
		ReferenceID:         claim.ReferenceID,
		VerificationDetails: claim.VerificationDetails,
		Status:              claim.Status,
		SubmittedAt:         claim.SubmittedAt,
	}

	if claim.ProofKey != nil {
		url, err := s.objects.PresignedURL(ctx, *claim.ProofKey)
		if err != nil {
			s.logger.WithError(err).WithField("key", *claim.ProofKey).Warn("failed to presign claim proof")
		} else {
			resp.ProofURL = url
		}
	}

	return resp
}
