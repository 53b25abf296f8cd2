// Package lifecycle enforces legal status transitions for items and claims.
// Every function mutates the snapshot it is handed and returns the typed
// audit detail for the action; persisting the record together with the
// audit entry is the caller's job. Guarding against concurrent admins is
// done at persistence time with the status the snapshot had on entry
// (see store.UpdateItemGuarded).
package lifecycle

import (
	"fmt"
	"time"

	"lostlink/internal/utils"
	"lostlink/pkg/types"
)

// VerifyAndStore marks a FOUND item as verified and physically stored.
// Re-verification is idempotent: storage location, verifier identity and
// timestamp are always reset. Items that already left the shelf (terminal
// states) can no longer be stored.
func VerifyAndStore(item *types.Item, location, remarks, adminID, adminName string, now time.Time) (types.AuditDetail, error) {
	if item.Type != types.ItemTypeFound {
		return nil, fmt.Errorf("only found items take a storage location: %w", types.ErrValidation)
	}

	if location == "" {
		return nil, fmt.Errorf("storage location is required: %w", types.ErrValidation)
	}

	if item.Status.Terminal() {
		return nil, fmt.Errorf("item %s is %s and cannot be re-stored: %w", item.ID, item.Status, types.ErrConflict)
	}

	item.StorageLocation = utils.StringPtr(location)
	item.VerifiedBy = utils.StringPtr(adminID)
	item.VerifiedByName = utils.StringPtr(adminName)
	item.VerifiedAt = utils.TimePtr(now)
	item.Status = types.ItemStatusAvailable
	item.UpdatedAt = now

	if remarks != "" {
		item.AdminRemarks = utils.StringPtr(remarks)
	}

	return types.StorageAssignedDetail{
		StorageLocation: location,
		Remarks:         remarks,
	}, nil
}

// ApproveClaim decides a pending claim in the claimant's favour and
// advances the referenced item to CLAIMED, awaiting physical handover.
// Approving is illegal when the claim is already decided or when the item
// is already promised to someone (post-claim state); nothing prevents
// multiple claims per item, so this is the gate that keeps a second claim
// from also reaching APPROVED.
func ApproveClaim(claim *types.Claim, item *types.Item, adminID string, remarks string, now time.Time) (types.AuditDetail, error) {
	if claim.ItemID != item.ID {
		return nil, fmt.Errorf("claim %s does not reference item %s: %w", claim.ID, item.ID, types.ErrValidation)
	}

	if claim.Status != types.ClaimStatusPending {
		return nil, fmt.Errorf("claim %s is already %s: %w", claim.ID, claim.Status, types.ErrConflict)
	}

	if item.Status.PostClaim() {
		return nil, fmt.Errorf("item %s is already %s: %w", item.ID, item.Status, types.ErrConflict)
	}

	claim.Status = types.ClaimStatusApproved
	claim.DecidedBy = utils.StringPtr(adminID)
	claim.DecidedAt = utils.TimePtr(now)
	if remarks != "" {
		claim.AdminRemarks = utils.StringPtr(remarks)
	}

	item.Status = types.ItemStatusClaimed
	item.UpdatedAt = now

	return types.ClaimDecidedDetail{
		ClaimID:    claim.ID,
		ItemID:     item.ID,
		ClaimantID: claim.ClaimantID,
		Decision:   types.ClaimStatusApproved,
		Remarks:    remarks,
	}, nil
}

// RejectClaim decides a pending claim against the claimant. The item is
// untouched.
func RejectClaim(claim *types.Claim, adminID string, remarks string, now time.Time) (types.AuditDetail, error) {
	if claim.Status != types.ClaimStatusPending {
		return nil, fmt.Errorf("claim %s is already %s: %w", claim.ID, claim.Status, types.ErrConflict)
	}

	claim.Status = types.ClaimStatusRejected
	claim.DecidedBy = utils.StringPtr(adminID)
	claim.DecidedAt = utils.TimePtr(now)
	if remarks != "" {
		claim.AdminRemarks = utils.StringPtr(remarks)
	}

	return types.ClaimDecidedDetail{
		ClaimID:    claim.ID,
		ItemID:     claim.ItemID,
		ClaimantID: claim.ClaimantID,
		Decision:   types.ClaimStatusRejected,
		Remarks:    remarks,
	}, nil
}

// RecordHandover stamps the physical return of a FOUND item. Legal from
// CLAIMED (the normal path after an approved claim) and from AVAILABLE
// (walk-up handover at the desk, no claim filed).
func RecordHandover(item *types.Item, studentID, remarks, handlerID, handlerName string, now time.Time) (types.AuditDetail, error) {
	if item.Type != types.ItemTypeFound {
		return nil, fmt.Errorf("only found items are handed over: %w", types.ErrValidation)
	}

	if studentID == "" {
		return nil, fmt.Errorf("recipient student id is required: %w", types.ErrValidation)
	}

	if item.Status != types.ItemStatusClaimed && item.Status != types.ItemStatusAvailable {
		return nil, fmt.Errorf("item %s is %s, not awaiting handover: %w", item.ID, item.Status, types.ErrConflict)
	}

	item.Status = types.ItemStatusReturned
	item.HandedOverBy = utils.StringPtr(handlerID)
	item.HandedOverByName = utils.StringPtr(handlerName)
	item.HandedOverToStudentID = utils.StringPtr(studentID)
	item.HandedOverAt = utils.TimePtr(now)
	item.UpdatedAt = now

	if remarks != "" {
		item.AdminRemarks = utils.StringPtr(remarks)
	}

	return types.HandoverDetail{
		StudentID: studentID,
		Remarks:   remarks,
	}, nil
}

// Archive closes out an unclaimed item administratively. Legal from any
// pre-handover state.
func Archive(item *types.Item, now time.Time) (types.AuditDetail, error) {
	return dispose(item, types.ItemStatusArchived, now)
}

// Dispose records destruction or donation of an unclaimed item. Legal from
// any pre-handover state.
func Dispose(item *types.Item, now time.Time) (types.AuditDetail, error) {
	return dispose(item, types.ItemStatusDisposed, now)
}

func dispose(item *types.Item, to types.ItemStatus, now time.Time) (types.AuditDetail, error) {
	if item.Status.Terminal() {
		return nil, fmt.Errorf("item %s is already %s: %w", item.ID, item.Status, types.ErrConflict)
	}

	detail := types.DispositionDetail{
		Disposition: to,
		FromStatus:  item.Status,
	}

	item.Status = to
	item.UpdatedAt = now

	return detail, nil
}

// ResolveLost closes a LOST report, either because a claim against its
// found counterpart was approved or because the owner reported it back.
func ResolveLost(item *types.Item, now time.Time) error {
	if item.Type != types.ItemTypeLost {
		return fmt.Errorf("only lost items resolve: %w", types.ErrValidation)
	}

	if item.Status != types.ItemStatusOpen {
		return fmt.Errorf("lost item %s is %s: %w", item.ID, item.Status, types.ErrConflict)
	}

	item.Status = types.ItemStatusResolved
	item.UpdatedAt = now
	return nil
}

// OverrideStatus applies a manual admin status change. The one invariant it
// enforces is monotonicity: a terminal state is never left.
func OverrideStatus(item *types.Item, to types.ItemStatus, now time.Time) (types.AuditDetail, error) {
	if item.Status.Terminal() {
		return nil, fmt.Errorf("item %s is %s, a terminal state: %w", item.ID, item.Status, types.ErrConflict)
	}

	detail := types.StatusChangedDetail{
		FromStatus: item.Status,
		ToStatus:   to,
	}

	item.Status = to
	item.UpdatedAt = now

	return detail, nil
}

// RecoveryStats is the derived recovery picture over a FOUND item snapshot.
//
// Policy: an item counts as recovered once a claim on it is approved
// (CLAIMED) or it physically went back (RETURNED/RESOLVED). CLAIMED items
// are additionally reported as pending handover so the desk can chase them.
// Older revisions of the dashboard counted only RETURNED; the two numbers
// are deliberately unified here.
type RecoveryStats struct {
	TotalFound      int     `json:"total_found"`
	Recovered       int     `json:"recovered"`
	PendingHandover int     `json:"pending_handover"`
	RatePercent     float64 `json:"recovery_rate_percent"`
}

// ComputeRecoveryRate computes recovery statistics over an item snapshot.
// Non-FOUND items in the slice are ignored. The rate is rounded to two
// decimal places and is 0 when no FOUND items exist.
func ComputeRecoveryRate(items []*types.Item) RecoveryStats {
	var stats RecoveryStats

	for _, item := range items {
		if item.Type != types.ItemTypeFound {
			continue
		}

		stats.TotalFound++

		switch item.Status {
		case types.ItemStatusReturned, types.ItemStatusResolved:
			stats.Recovered++
		case types.ItemStatusClaimed:
			stats.Recovered++
			stats.PendingHandover++
		}
	}

	if stats.TotalFound > 0 {
		stats.RatePercent = utils.RoundFloat64(float64(stats.Recovered)/float64(stats.TotalFound)*100, 2)
	}

	return stats
}
