package types

import "time"

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// Decided reports whether the claim has reached a terminal status. Decided
// claims are immutable.
func (s ClaimStatus) Decided() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected
}

// Claim is a claimant's assertion of ownership over a FOUND item. A claim
// always references an existing item at creation time; multiple claims may
// exist per item but at most one may reach APPROVED.
type Claim struct {
	ID                  string      `db:"id" json:"id"`
	ReferenceID         string      `db:"reference_id" json:"referenceId"`
	ItemID              string      `db:"item_id" json:"itemId"`
	ClaimantID          string      `db:"claimant_id" json:"claimantId"`
	VerificationDetails string      `db:"verification_details" json:"verificationDetails"`
	ProofKey            *string     `db:"proof_key" json:"proofKey"`
	Status              ClaimStatus `db:"status" json:"status"`
	AdminRemarks        *string     `db:"admin_remarks" json:"adminRemarks"`
	DecidedBy           *string     `db:"decided_by" json:"decidedBy"`
	DecidedAt           *time.Time  `db:"decided_at" json:"decidedAt"`
	SubmittedAt         time.Time   `db:"submitted_at" json:"submittedAt"`
}
