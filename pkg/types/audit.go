package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type AuditAction string

const (
	AuditActionLogin           AuditAction = "LOGIN"
	AuditActionStorageAssigned AuditAction = "STORAGE_ASSIGNED"
	AuditActionClaimApproved   AuditAction = "CLAIM_APPROVED"
	AuditActionClaimRejected   AuditAction = "CLAIM_REJECTED"
	AuditActionHandover        AuditAction = "HANDOVER"
	AuditActionArchived        AuditAction = "ARCHIVED"
	AuditActionDisposed        AuditAction = "DISPOSED"
	AuditActionStatusChanged   AuditAction = "STATUS_CHANGED"
	AuditActionBroadcast       AuditAction = "BROADCAST"
)

type AuditTargetType string

const (
	AuditTargetItem  AuditTargetType = "ITEM"
	AuditTargetClaim AuditTargetType = "CLAIM"
	AuditTargetUser  AuditTargetType = "USER"
)

// AuditDetail is the tagged union of known audit payloads. Every mutating
// admin action has exactly one detail type; the action name doubles as the
// discriminator when the payload is stored.
type AuditDetail interface {
	AuditAction() AuditAction
}

type LoginDetail struct {
	Email string `json:"email"`
	IP    string `json:"ip"`
}

func (LoginDetail) AuditAction() AuditAction { return AuditActionLogin }

type StorageAssignedDetail struct {
	StorageLocation string `json:"storage_location"`
	Remarks         string `json:"remarks,omitempty"`
}

func (StorageAssignedDetail) AuditAction() AuditAction { return AuditActionStorageAssigned }

type ClaimDecidedDetail struct {
	ClaimID    string      `json:"claim_id"`
	ItemID     string      `json:"item_id"`
	ClaimantID string      `json:"claimant_id"`
	Decision   ClaimStatus `json:"decision"`
	Remarks    string      `json:"remarks,omitempty"`
}

func (d ClaimDecidedDetail) AuditAction() AuditAction {
	if d.Decision == ClaimStatusRejected {
		return AuditActionClaimRejected
	}
	return AuditActionClaimApproved
}

type HandoverDetail struct {
	StudentID string `json:"student_id"`
	Remarks   string `json:"remarks,omitempty"`
}

func (HandoverDetail) AuditAction() AuditAction { return AuditActionHandover }

type DispositionDetail struct {
	Disposition ItemStatus `json:"disposition"` // ARCHIVED or DISPOSED
	FromStatus  ItemStatus `json:"from_status"`
}

func (d DispositionDetail) AuditAction() AuditAction {
	if d.Disposition == ItemStatusDisposed {
		return AuditActionDisposed
	}
	return AuditActionArchived
}

type StatusChangedDetail struct {
	FromStatus ItemStatus `json:"from_status"`
	ToStatus   ItemStatus `json:"to_status"`
}

func (StatusChangedDetail) AuditAction() AuditAction { return AuditActionStatusChanged }

type BroadcastDetail struct {
	Title      string `json:"title"`
	Recipients int    `json:"recipients"`
}

func (BroadcastDetail) AuditAction() AuditAction { return AuditActionBroadcast }

// AuditLog tracks admin actions for accountability. Details holds the
// serialized AuditDetail payload for the Action.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	AdminID    string          `db:"admin_id" json:"adminId"`
	AdminName  string          `db:"admin_name" json:"adminName"`
	Action     AuditAction     `db:"action" json:"action"`
	TargetType AuditTargetType `db:"target_type" json:"targetType"`
	TargetID   string          `db:"target_id" json:"targetId"`
	Details    json.RawMessage `db:"details" json:"details"`
	Timestamp  time.Time       `db:"timestamp" json:"timestamp"`
}

// NewAuditLog builds an audit entry from a typed detail payload. The entry
// still needs an ID and persistence by the caller's store.
func NewAuditLog(adminID, adminName string, targetType AuditTargetType, targetID string, detail AuditDetail, at time.Time) (*AuditLog, error) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("marshal audit detail: %w", err)
	}

	return &AuditLog{
		AdminID:    adminID,
		AdminName:  adminName,
		Action:     detail.AuditAction(),
		TargetType: targetType,
		TargetID:   targetID,
		Details:    payload,
		Timestamp:  at,
	}, nil
}
