package models

import "time"

// Vote is a single ballot. The composite unique index enforces one vote per (proposal, voter).
type Vote struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	ProposalID uint       `json:"proposal_id" gorm:"uniqueIndex:idx_votes_proposal_voter;not null"`
	VoterID    uint       `json:"voter_id" gorm:"uniqueIndex:idx_votes_proposal_voter;not null"`
	Choice     VoteChoice `json:"choice"`
	Reason     string     `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
