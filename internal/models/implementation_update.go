package models

import "time"

// ImplementationUpdate records progress on an approved proposal.
type ImplementationUpdate struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProposalID  uint      `json:"proposal_id" gorm:"index"`
	AuthorID    uint      `json:"author_id"`
	Progress    int       `json:"progress"` // percent, 0-100
	Note        string    `json:"note" gorm:"type:text"`
	EvidenceRef string    `json:"evidence_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
