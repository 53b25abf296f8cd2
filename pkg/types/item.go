package types

import (
	"time"
)

type ItemType string

const (
	ItemTypeLost  ItemType = "LOST"
	ItemTypeFound ItemType = "FOUND"
)

type ItemStatus string

const (
	ItemStatusOpen      ItemStatus = "OPEN"
	ItemStatusPending   ItemStatus = "PENDING"
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	ItemStatusClaimed   ItemStatus = "CLAIMED"
	ItemStatusReturned  ItemStatus = "RETURNED"
	ItemStatusResolved  ItemStatus = "RESOLVED"
	ItemStatusArchived  ItemStatus = "ARCHIVED"
	ItemStatusDisposed  ItemStatus = "DISPOSED"
)

// Terminal reports whether the status ends the item lifecycle. Terminal
// items are retained for audit and never transition again.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemStatusReturned, ItemStatusResolved, ItemStatusArchived, ItemStatusDisposed:
		return true
	}
	return false
}

// PostClaim reports whether the item has already been promised or handed
// to a claimant. Approving another claim in one of these states is illegal.
func (s ItemStatus) PostClaim() bool {
	switch s {
	case ItemStatusClaimed, ItemStatusReturned, ItemStatusResolved, ItemStatusArchived, ItemStatusDisposed:
		return true
	}
	return false
}

// OpenFoundStatuses are the FOUND item statuses still eligible for matching
// and claiming.
var OpenFoundStatuses = []ItemStatus{ItemStatusPending, ItemStatusAvailable}

type ItemCategory string

const (
	CategoryDocuments     ItemCategory = "DOCUMENTS"
	CategoryDevices       ItemCategory = "DEVICES"
	CategoryAccessories   ItemCategory = "ACCESSORIES"
	CategoryPersonalItems ItemCategory = "PERSONAL_ITEMS"
	CategoryKeys          ItemCategory = "KEYS"
	CategoryBooks         ItemCategory = "BOOKS"
	CategoryJewellery     ItemCategory = "JEWELLERY"
	CategoryOthers        ItemCategory = "OTHERS"
)

var ItemCategories = []ItemCategory{
	CategoryDocuments,
	CategoryDevices,
	CategoryAccessories,
	CategoryPersonalItems,
	CategoryKeys,
	CategoryBooks,
	CategoryJewellery,
	CategoryOthers,
}

// HighRiskCategories flag items worth a dashboard alert while they sit
// unclaimed.
var HighRiskCategories = []ItemCategory{CategoryDevices, CategoryKeys, CategoryJewellery}

func ValidCategory(c ItemCategory) bool {
	for _, known := range ItemCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Item is a single lost or found physical object report. Type is immutable
// after creation; Status only moves forward along the lifecycle.
type Item struct {
	ID          string       `db:"id" json:"id"`
	ReferenceID string       `db:"reference_id" json:"referenceId"`
	UserID      string       `db:"user_id" json:"userId"`
	Type        ItemType     `db:"type" json:"type"`
	Category    ItemCategory `db:"category" json:"category"`
	Description string       `db:"description" json:"description"`
	Location    string       `db:"location" json:"location"`
	Status      ItemStatus   `db:"status" json:"status"`
	ImageKey    *string      `db:"image_key" json:"imageKey"`

	// Admin fields, set during verification
	StorageLocation *string    `db:"storage_location" json:"storageLocation"`
	AdminRemarks    *string    `db:"admin_remarks" json:"adminRemarks"`
	VerifiedBy      *string    `db:"verified_by" json:"verifiedBy"`
	VerifiedByName  *string    `db:"verified_by_name" json:"verifiedByName"`
	VerifiedAt      *time.Time `db:"verified_at" json:"verifiedAt"`

	// Handover fields, set when the item is physically returned
	HandedOverBy          *string    `db:"handed_over_by" json:"handedOverBy"`
	HandedOverByName      *string    `db:"handed_over_by_name" json:"handedOverByName"`
	HandedOverToStudentID *string    `db:"handed_over_to_student_id" json:"handedOverToStudentId"`
	HandedOverAt          *time.Time `db:"handed_over_at" json:"handedOverAt"`

	// Counterpart LOST report, linked when a claim is approved
	LinkedItemID *string `db:"linked_item_id" json:"linkedItemId"`

	ReportedAt time.Time `db:"reported_at" json:"reportedAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
