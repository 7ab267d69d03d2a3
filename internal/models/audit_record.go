package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAuditImmutable is returned when code attempts to change or remove an audit record.
var ErrAuditImmutable = errors.New("audit records are immutable")

// AuditAction names a governance action captured in the audit log.
type AuditAction string

const (
	ActionProposalCreated       AuditAction = "PROPOSAL_CREATED"
	ActionStatusUpdated         AuditAction = "STATUS_UPDATED"
	ActionStatusUpdatedAuto     AuditAction = "STATUS_UPDATED_AUTO"
	ActionVoteCast              AuditAction = "VOTE_CAST"
	ActionVoteUpdated           AuditAction = "VOTE_UPDATED"
	ActionCommentAdded          AuditAction = "COMMENT_ADDED"
	ActionOfficialResponseAdded AuditAction = "OFFICIAL_RESPONSE_ADDED"
	ActionImplementationUpdated AuditAction = "IMPLEMENTATION_UPDATED"
	ActionUserVerified          AuditAction = "USER_VERIFIED"
)

// AuditRecord is an append-only, hash-chained log entry. ID is assigned by the database
// and strictly increases; Hash covers the record content and PrevHash.
type AuditRecord struct {
	ID         uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID       string      `json:"uuid" gorm:"uniqueIndex"`
	Timestamp  time.Time   `json:"timestamp"`
	Actor      string      `json:"actor" gorm:"index"`
	Action     AuditAction `json:"action"`
	ProposalID *uint       `json:"proposal_id,omitempty" gorm:"index"`
	DataRef    string      `json:"data_ref,omitempty" gorm:"type:text"`
	PrevHash   string      `json:"prev_hash"`
	Hash       string      `json:"hash"`
}

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

func (a *AuditRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

func (a *AuditRecord) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}
