package lifecycle_test

import (
	"testing"
	"time"

	"lostlink/internal/lifecycle"
	"lostlink/internal/utils"
	"lostlink/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

func pendingFoundItem() *types.Item {
	return &types.Item{
		ID:       "item-1",
		Type:     types.ItemTypeFound,
		Category: types.CategoryDevices,
		Status:   types.ItemStatusPending,
	}
}

func pendingClaim(itemID string) *types.Claim {
	return &types.Claim{
		ID:         "claim-1",
		ItemID:     itemID,
		ClaimantID: "student-1",
		Status:     types.ClaimStatusPending,
	}
}

func TestVerifyAndStore(t *testing.T) {
	t.Run("pending item becomes available with storage assigned", func(t *testing.T) {
		item := pendingFoundItem()

		detail, err := lifecycle.VerifyAndStore(item, "Rack A1", "", "admin-1", "Student Care Admin", now)
		require.NoError(t, err)

		assert.Equal(t, types.ItemStatusAvailable, item.Status)
		assert.Equal(t, "Rack A1", utils.PtrString(item.StorageLocation))
		assert.Equal(t, "admin-1", utils.PtrString(item.VerifiedBy))
		require.NotNil(t, item.VerifiedAt)
		assert.Equal(t, now, *item.VerifiedAt)

		require.IsType(t, types.StorageAssignedDetail{}, detail)
		assert.Equal(t, types.AuditActionStorageAssigned, detail.AuditAction())
	})

	t.Run("re-verification resets storage fields", func(t *testing.T) {
		item := pendingFoundItem()
		_, err := lifecycle.VerifyAndStore(item, "Rack A1", "", "admin-1", "Admin One", now)
		require.NoError(t, err)

		later := now.Add(time.Hour)
		_, err = lifecycle.VerifyAndStore(item, "Rack B2", "moved", "admin-2", "Admin Two", later)
		require.NoError(t, err)

		assert.Equal(t, types.ItemStatusAvailable, item.Status)
		assert.Equal(t, "Rack B2", utils.PtrString(item.StorageLocation))
		assert.Equal(t, "admin-2", utils.PtrString(item.VerifiedBy))
		assert.Equal(t, later, *item.VerifiedAt)
	})

	t.Run("lost item rejected", func(t *testing.T) {
		item := pendingFoundItem()
		item.Type = types.ItemTypeLost
		item.Status = types.ItemStatusOpen

		_, err := lifecycle.VerifyAndStore(item, "Rack A1", "", "admin-1", "Admin", now)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("missing location rejected", func(t *testing.T) {
		_, err := lifecycle.VerifyAndStore(pendingFoundItem(), "", "", "admin-1", "Admin", now)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("terminal item conflicts", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusDisposed

		_, err := lifecycle.VerifyAndStore(item, "Rack A1", "", "admin-1", "Admin", now)
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestApproveClaim(t *testing.T) {
	t.Run("pending claim against available item", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusAvailable
		claim := pendingClaim(item.ID)

		detail, err := lifecycle.ApproveClaim(claim, item, "admin-1", "id card checked", now)
		require.NoError(t, err)

		assert.Equal(t, types.ClaimStatusApproved, claim.Status)
		assert.Equal(t, "admin-1", utils.PtrString(claim.DecidedBy))
		assert.Equal(t, now, *claim.DecidedAt)
		assert.Equal(t, types.ItemStatusClaimed, item.Status)
		assert.Equal(t, types.AuditActionClaimApproved, detail.AuditAction())
	})

	t.Run("second approval on the same item conflicts", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusAvailable

		first := pendingClaim(item.ID)
		_, err := lifecycle.ApproveClaim(first, item, "admin-1", "", now)
		require.NoError(t, err)

		second := pendingClaim(item.ID)
		second.ID = "claim-2"
		_, err = lifecycle.ApproveClaim(second, item, "admin-1", "", now)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Equal(t, types.ClaimStatusPending, second.Status)
	})

	t.Run("decided claim conflicts", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusAvailable
		claim := pendingClaim(item.ID)
		claim.Status = types.ClaimStatusRejected

		_, err := lifecycle.ApproveClaim(claim, item, "admin-1", "", now)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("claim for a different item rejected", func(t *testing.T) {
		item := pendingFoundItem()
		claim := pendingClaim("other-item")

		_, err := lifecycle.ApproveClaim(claim, item, "admin-1", "", now)
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestRejectClaim(t *testing.T) {
	claim := pendingClaim("item-1")

	detail, err := lifecycle.RejectClaim(claim, "admin-1", "proof insufficient", now)
	require.NoError(t, err)
	assert.Equal(t, types.ClaimStatusRejected, claim.Status)
	assert.Equal(t, types.AuditActionClaimRejected, detail.AuditAction())

	_, err = lifecycle.RejectClaim(claim, "admin-1", "", now)
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestRecordHandover(t *testing.T) {
	t.Run("claimed item returns", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusClaimed

		detail, err := lifecycle.RecordHandover(item, "2021503712", "", "admin-1", "Student Care Admin", now)
		require.NoError(t, err)

		assert.Equal(t, types.ItemStatusReturned, item.Status)
		assert.Equal(t, "2021503712", utils.PtrString(item.HandedOverToStudentID))
		assert.Equal(t, "admin-1", utils.PtrString(item.HandedOverBy))
		assert.Equal(t, now, *item.HandedOverAt)
		assert.Equal(t, types.AuditActionHandover, detail.AuditAction())
	})

	t.Run("walk-up handover from available", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusAvailable

		_, err := lifecycle.RecordHandover(item, "2021503712", "", "admin-1", "Admin", now)
		require.NoError(t, err)
		assert.Equal(t, types.ItemStatusReturned, item.Status)
	})

	t.Run("missing student id rejected", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusClaimed

		_, err := lifecycle.RecordHandover(item, "", "", "admin-1", "Admin", now)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("already returned conflicts", func(t *testing.T) {
		item := pendingFoundItem()
		item.Status = types.ItemStatusReturned

		_, err := lifecycle.RecordHandover(item, "2021503712", "", "admin-1", "Admin", now)
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestArchiveAndDispose(t *testing.T) {
	legal := []types.ItemStatus{
		types.ItemStatusOpen,
		types.ItemStatusPending,
		types.ItemStatusAvailable,
		types.ItemStatusClaimed,
	}
	for _, from := range legal {
		item := pendingFoundItem()
		item.Status = from

		detail, err := lifecycle.Archive(item, now)
		require.NoError(t, err, "archive from %s", from)
		assert.Equal(t, types.ItemStatusArchived, item.Status)
		assert.Equal(t, types.AuditActionArchived, detail.AuditAction())
	}

	terminal := []types.ItemStatus{
		types.ItemStatusReturned,
		types.ItemStatusResolved,
		types.ItemStatusArchived,
		types.ItemStatusDisposed,
	}
	for _, from := range terminal {
		item := pendingFoundItem()
		item.Status = from

		_, err := lifecycle.Dispose(item, now)
		assert.ErrorIs(t, err, types.ErrConflict, "dispose from %s", from)
		assert.Equal(t, from, item.Status, "terminal status must not change")
	}

	item := pendingFoundItem()
	detail, err := lifecycle.Dispose(item, now)
	require.NoError(t, err)
	assert.Equal(t, types.ItemStatusDisposed, item.Status)
	assert.Equal(t, types.AuditActionDisposed, detail.AuditAction())
}

func TestResolveLost(t *testing.T) {
	item := &types.Item{ID: "lost-1", Type: types.ItemTypeLost, Status: types.ItemStatusOpen}

	require.NoError(t, lifecycle.ResolveLost(item, now))
	assert.Equal(t, types.ItemStatusResolved, item.Status)

	assert.ErrorIs(t, lifecycle.ResolveLost(item, now), types.ErrConflict)

	found := pendingFoundItem()
	assert.ErrorIs(t, lifecycle.ResolveLost(found, now), types.ErrValidation)
}

func TestOverrideStatus(t *testing.T) {
	item := pendingFoundItem()

	detail, err := lifecycle.OverrideStatus(item, types.ItemStatusAvailable, now)
	require.NoError(t, err)
	assert.Equal(t, types.ItemStatusAvailable, item.Status)
	assert.Equal(t, types.AuditActionStatusChanged, detail.AuditAction())

	item.Status = types.ItemStatusReturned
	_, err = lifecycle.OverrideStatus(item, types.ItemStatusAvailable, now)
	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestComputeRecoveryRate(t *testing.T) {
	foundWith := func(status types.ItemStatus) *types.Item {
		return &types.Item{Type: types.ItemTypeFound, Status: status}
	}

	tests := []struct {
		name                string
		items               []*types.Item
		wantTotal           int
		wantRecovered       int
		wantPendingHandover int
		wantRate            float64
	}{
		{
			name:  "no found items never divides by zero",
			items: []*types.Item{{Type: types.ItemTypeLost, Status: types.ItemStatusOpen}},
		},
		{
			name: "returned claimed and available",
			items: []*types.Item{
				foundWith(types.ItemStatusReturned),
				foundWith(types.ItemStatusClaimed),
				foundWith(types.ItemStatusAvailable),
			},
			wantTotal:           3,
			wantRecovered:       2,
			wantPendingHandover: 1,
			wantRate:            66.67,
		},
		{
			name: "lost items are ignored",
			items: []*types.Item{
				foundWith(types.ItemStatusReturned),
				{Type: types.ItemTypeLost, Status: types.ItemStatusResolved},
			},
			wantTotal:     1,
			wantRecovered: 1,
			wantRate:      100,
		},
		{
			name: "archived and disposed do not count as recovered",
			items: []*types.Item{
				foundWith(types.ItemStatusArchived),
				foundWith(types.ItemStatusDisposed),
				foundWith(types.ItemStatusResolved),
				foundWith(types.ItemStatusPending),
			},
			wantTotal:     4,
			wantRecovered: 1,
			wantRate:      25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lifecycle.ComputeRecoveryRate(tt.items)
			assert.Equal(t, tt.wantTotal, got.TotalFound)
			assert.Equal(t, tt.wantRecovered, got.Recovered)
			assert.Equal(t, tt.wantPendingHandover, got.PendingHandover)
			assert.InDelta(t, tt.wantRate, got.RatePercent, 0.001)
		})
	}
}

// Recovery rate never moves backwards as items advance toward terminal
// recovered states with the found population held fixed.
func TestRecoveryRateMonotonic(t *testing.T) {
	items := []*types.Item{
		{Type: types.ItemTypeFound, Status: types.ItemStatusPending},
		{Type: types.ItemTypeFound, Status: types.ItemStatusAvailable},
		{Type: types.ItemTypeFound, Status: types.ItemStatusAvailable},
	}

	prev := lifecycle.ComputeRecoveryRate(items).RatePercent

	steps := []func(){
		func() { items[0].Status = types.ItemStatusAvailable },
		func() { items[0].Status = types.ItemStatusClaimed },
		func() { items[0].Status = types.ItemStatusReturned },
		func() { items[1].Status = types.ItemStatusClaimed },
		func() { items[2].Status = types.ItemStatusClaimed },
		func() { items[1].Status = types.ItemStatusReturned },
	}

	for i, step := range steps {
		step()
		rate := lifecycle.ComputeRecoveryRate(items).RatePercent
		assert.GreaterOrEqual(t, rate, prev, "step %d", i)
		prev = rate
	}
}
