package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lostlink/internal/lifecycle"
	"lostlink/internal/utils"
	"lostlink/pkg/types"
)

// claimResponse is a claim with its item and claimant attached.
type claimResponse struct {
	*types.Claim
	Item     *itemResponse     `json:"item,omitempty"`
	Claimant *types.PublicUser `json:"claimant,omitempty"`
	ProofURL string            `json:"proofUrl,omitempty"`
}

func (s *Service) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	itemID := r.FormValue("item_id")
	if itemID == "" {
		s.respondError(w, fmt.Errorf("item_id is required: %w", types.ErrValidation))
		return
	}

	// A claim never dangles: the item must exist up front.
	item, err := s.items.Item(r.Context(), itemID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	now := time.Now()

	claim := &types.Claim{
		ReferenceID:         utils.ReferenceID("CLM", now),
		ItemID:              item.ID,
		ClaimantID:          identity.UserID,
		VerificationDetails: r.FormValue("verification_details"),
		Status:              types.ClaimStatusPending,
		SubmittedAt:         now,
	}

	if file, header, err := r.FormFile("proof_image"); err == nil {
		defer file.Close()

		key, err := s.objects.Upload(r.Context(), "claims", header.Filename, file, header.Header.Get("Content-Type"))
		if err != nil {
			s.logger.WithError(err).Error("failed to upload claim proof")
			s.respondError(w, err)
			return
		}

		claim.ProofKey = &key
	}

	if err := s.claims.CreateClaim(r.Context(), claim); err != nil {
		s.logger.WithError(err).Error("failed to create claim")
		s.respondError(w, err)
		return
	}

	s.notifyAdmins(r.Context(), types.NotificationPendingClaim,
		"New claim awaiting verification",
		fmt.Sprintf("%s: a claim was filed against %s", claim.ReferenceID, item.ReferenceID),
		&claim.ID)

	responses, err := s.claimResponses(r.Context(), []*types.Claim{claim})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, responses[0])
}

func (s *Service) handleMyClaims(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	claims, err := s.claims.ClaimsByClaimant(r.Context(), identity.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch claims")
		s.respondError(w, err)
		return
	}

	responses, err := s.claimResponses(r.Context(), claims)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses)
}

func (s *Service) handleClaimsByStatus(w http.ResponseWriter, r *http.Request) {
	status := types.ClaimStatus(r.URL.Query().Get("status"))

	switch status {
	case "", types.ClaimStatusPending, types.ClaimStatusApproved, types.ClaimStatusRejected:
	default:
		s.respondError(w, fmt.Errorf("unknown claim status %q: %w", status, types.ErrValidation))
		return
	}

	claims, err := s.claims.ClaimsByStatus(r.Context(), status)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch claims")
		s.respondError(w, err)
		return
	}

	responses, err := s.claimResponses(r.Context(), claims)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses)
}

func (s *Service) handleClaimsForItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}

	claims, err := s.claims.ClaimsByItem(r.Context(), itemID)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch item claims")
		s.respondError(w, err)
		return
	}

	responses, err := s.claimResponses(r.Context(), claims)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses)
}

// handleVerifyClaim decides a pending claim. Approval advances the item to
// CLAIMED and at most one claim per item can ever get here, enforced by
// the guarded item update: two admins approving competing claims race on
// the item row and the loser gets a conflict.
func (s *Service) handleVerifyClaim(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	claimID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, err)
		return
	}
	decision := types.ClaimStatus(r.URL.Query().Get("status"))
	remarks := r.URL.Query().Get("remarks")

	if decision != types.ClaimStatusApproved && decision != types.ClaimStatusRejected {
		s.respondError(w, fmt.Errorf("status must be APPROVED or REJECTED: %w", types.ErrValidation))
		return
	}

	claim, err := s.claims.Claim(r.Context(), claimID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	now := time.Now()

	var detail types.AuditDetail
	switch decision {
	case types.ClaimStatusApproved:
		item, err := s.items.Item(r.Context(), claim.ItemID)
		if err != nil {
			s.respondError(w, err)
			return
		}

		expectItem := item.Status

		detail, err = lifecycle.ApproveClaim(claim, item, identity.UserID, remarks, now)
		if err != nil {
			s.respondError(w, err)
			return
		}

		// Item first: it carries the single-approval invariant.
		if err := s.items.UpdateItemGuarded(r.Context(), item, expectItem); err != nil {
			s.respondError(w, err)
			return
		}

		if err := s.claims.UpdateClaimGuarded(r.Context(), claim, types.ClaimStatusPending); err != nil {
			s.respondError(w, err)
			return
		}

		s.resolveLinkedLost(r.Context(), item)

		s.notifyUser(r.Context(), claim.ClaimantID, types.NotificationClaimDecision,
			"Your claim was approved",
			fmt.Sprintf("%s was approved. Collect your item at the lost and found desk.", claim.ReferenceID),
			&claim.ID)

	case types.ClaimStatusRejected:
		detail, err = lifecycle.RejectClaim(claim, identity.UserID, remarks, now)
		if err != nil {
			s.respondError(w, err)
			return
		}

		if err := s.claims.UpdateClaimGuarded(r.Context(), claim, types.ClaimStatusPending); err != nil {
			s.respondError(w, err)
			return
		}

		s.notifyUser(r.Context(), claim.ClaimantID, types.NotificationClaimDecision,
			"Your claim was rejected",
			fmt.Sprintf("%s was rejected. Contact the lost and found desk for details.", claim.ReferenceID),
			&claim.ID)
	}

	s.recordAudit(r.Context(), identity, types.AuditTargetClaim, claim.ID, detail)

	responses, err := s.claimResponses(r.Context(), []*types.Claim{claim})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, responses[0])
}

// resolveLinkedLost closes the LOST counterpart of a found item, if one is
// linked. Best effort: a failure here never rolls back the claim decision.
func (s *Service) resolveLinkedLost(ctx context.Context, item *types.Item) {
	if item.LinkedItemID == nil {
		return
	}

	lostItem, err := s.items.Item(ctx, *item.LinkedItemID)
	if err != nil {
		s.logger.WithError(err).WithField("item_id", *item.LinkedItemID).Warn("linked lost item missing")
		return
	}

	expect := lostItem.Status
	if err := lifecycle.ResolveLost(lostItem, time.Now()); err != nil {
		if !errors.Is(err, types.ErrConflict) {
			s.logger.WithError(err).WithField("item_id", lostItem.ID).Warn("failed to resolve linked lost item")
		}
		return
	}

	if err := s.items.UpdateItemGuarded(ctx, lostItem, expect); err != nil {
		s.logger.WithError(err).WithField("item_id", lostItem.ID).Warn("failed to persist linked lost item resolution")
	}
}

// claimResponses attaches items and claimants, batching user lookups.
func (s *Service) claimResponses(ctx context.Context, claims []*types.Claim) ([]*claimResponse, error) {
	claimantIDs := make([]string, 0, len(claims))
	for _, claim := range claims {
		claimantIDs = append(claimantIDs, claim.ClaimantID)
	}

	claimants, err := s.users.UsersByIDs(ctx, claimantIDs)
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch claimants")
		return nil, err
	}

	responses := make([]*claimResponse, 0, len(claims))
	for _, claim := range claims {
		resp := &claimResponse{Claim: claim, Claimant: claimants[claim.ClaimantID].Public()}

		item, err := s.items.Item(ctx, claim.ItemID)
		if err == nil {
			attached, err := s.itemResponses(ctx, []*types.Item{item})
			if err == nil {
				resp.Item = attached[0]
			}
		}

		if claim.ProofKey != nil {
			url, err := s.objects.PresignedURL(ctx, *claim.ProofKey)
			if err != nil {
				s.logger.WithError(err).WithField("key", *claim.ProofKey).Warn("failed to presign claim proof")
			} else {
				resp.ProofURL = url
			}
		}

		responses = append(responses, resp)
	}

	return responses, nil
}
