package types

import "time"

type NotificationCategory string

const (
	NotificationHighValueItem NotificationCategory = "HIGH_VALUE_ITEM"
	NotificationPendingClaim  NotificationCategory = "PENDING_CLAIM"
	NotificationNewFoundItem  NotificationCategory = "NEW_FOUND_ITEM"
	NotificationClaimDecision NotificationCategory = "CLAIM_DECISION"
	NotificationHandover      NotificationCategory = "HANDOVER"
	NotificationBroadcast     NotificationCategory = "BROADCAST"
)

type Notification struct {
	ID        string               `db:"id" json:"id"`
	UserID    string               `db:"user_id" json:"userId"`
	Title     string               `db:"title" json:"title"`
	Message   string               `db:"message" json:"message"`
	Category  NotificationCategory `db:"category" json:"category"`
	RelatedID *string              `db:"related_id" json:"relatedId"`
	Read      bool                 `db:"read" json:"read"`
	CreatedAt time.Time            `db:"created_at" json:"createdAt"`
}
