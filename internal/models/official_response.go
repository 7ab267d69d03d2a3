package models

import "time"

// OfficialResponse is the government's answer to a proposal. At most one exists per proposal.
type OfficialResponse struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProposalID  uint      `json:"proposal_id" gorm:"uniqueIndex"`
	ResponderID uint      `json:"responder_id"`
	Body        string    `json:"body" gorm:"type:text"`
	DocumentRef string    `json:"document_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
