package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Proposal is a citizen-submitted civic idea moving through review, voting and implementation.
type Proposal struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	UUID                  string         `json:"uuid" gorm:"uniqueIndex"`
	Title                 string         `json:"title"`
	Description           string         `json:"description" gorm:"type:text"`
	Category              Category       `json:"category" gorm:"index"`
	AuthorID              uint           `json:"author_id" gorm:"index"`
	Status                ProposalStatus `json:"status" gorm:"index"`
	YesCount              int            `json:"yes_count" gorm:"default:0"`
	NoCount               int            `json:"no_count" gorm:"default:0"`
	AbstainCount          int            `json:"abstain_count" gorm:"default:0"`
	VotingEndsAt          *time.Time     `json:"voting_ends_at,omitempty" gorm:"index"`
	DocumentRef           string         `json:"document_ref,omitempty"`
	ImplementationDetails string         `json:"implementation_details,omitempty" gorm:"type:text"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

// VoteTally summarises the ballots cast on a proposal.
type VoteTally struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Abstain int `json:"abstain"`
	Total   int `json:"total"`
}

// Tally returns the current counts.
func (p *Proposal) Tally() VoteTally {
	return VoteTally{
		Yes:     p.YesCount,
		No:      p.NoCount,
		Abstain: p.AbstainCount,
		Total:   p.YesCount + p.NoCount + p.AbstainCount,
	}
}

// VotingOpen reports whether ballots are accepted at now.
func (p *Proposal) VotingOpen(now time.Time) bool {
	if p.Status != StatusVoting {
		return false
	}
	return p.VotingEndsAt == nil || now.Before(*p.VotingEndsAt)
}

// VotingExpired reports whether the proposal is still marked as voting past its deadline.
func (p *Proposal) VotingExpired(now time.Time) bool {
	return p.Status == StatusVoting && p.VotingEndsAt != nil && !now.Before(*p.VotingEndsAt)
}

// Outcome is the status a closed vote resolves to. Ties are rejected.
func (p *Proposal) Outcome() ProposalStatus {
	if p.YesCount > p.NoCount {
		return StatusApproved
	}
	return StatusRejected
}
