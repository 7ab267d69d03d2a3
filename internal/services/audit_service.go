package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/metrics"
	"github.com/transparencity/backend/internal/models"
)

// AuditService owns the append-only audit log. Every record is linked to its predecessor
// by hash so that tampering with stored rows is detectable by VerifyChain.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, now: time.Now}
}

// ChainReport is the result of verifying the audit hash chain.
type ChainReport struct {
	Valid    bool `json:"valid"`
	Checked  int  `json:"checked"`
	BrokenAt uint `json:"broken_at,omitempty"`
}

// Append stores a new record in its own transaction.
func (s *AuditService) Append(actor string, proposalID *uint, action models.AuditAction, dataRef string) (*models.AuditRecord, error) {
	var rec *models.AuditRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.appendTx(tx, actor, proposalID, action, dataRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// appendTx stores a record inside the caller's transaction so the audited mutation and its
// record commit or roll back together.
func (s *AuditService) appendTx(tx *gorm.DB, actor string, proposalID *uint, action models.AuditAction, dataRef string) (*models.AuditRecord, error) {
	if actor == "" {
		return nil, validationError("audit actor is required")
	}
	if action == "" {
		return nil, validationError("audit action is required")
	}

	var last models.AuditRecord
	prevHash := ""
	nextID := uint(1)
	result := tx.Order("id desc").Limit(1).Find(&last)
	if result.Error != nil {
		return nil, fmt.Errorf("load last audit record: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		prevHash = last.Hash
		nextID = last.ID + 1
	}

	rec := &models.AuditRecord{
		ID:         nextID,
		UUID:       uuid.New().String(),
		Timestamp:  s.now().UTC().Truncate(time.Microsecond),
		Actor:      actor,
		Action:     action,
		ProposalID: proposalID,
		DataRef:    dataRef,
		PrevHash:   prevHash,
	}
	hash, err := hashAuditRecord(rec)
	if err != nil {
		return nil, err
	}
	rec.Hash = hash

	if err := tx.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("append audit record: %w", err)
	}
	metrics.IncAuditRecord()
	return rec, nil
}

// GetByProposal returns the records for a proposal in append order.
func (s *AuditService) GetByProposal(proposalID uint) ([]models.AuditRecord, error) {
	records := []models.AuditRecord{}
	if err := s.db.Where("proposal_id = ?", proposalID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetByActor returns the records written by actor in append order.
func (s *AuditService) GetByActor(actor string) ([]models.AuditRecord, error) {
	records := []models.AuditRecord{}
	if err := s.db.Where("actor = ?", actor).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetRange returns up to count records starting at position start (0-based). count is
// clamped to what is available; a start past the end yields an empty slice.
func (s *AuditService) GetRange(start, count int) ([]models.AuditRecord, error) {
	if start < 0 || count < 0 {
		return nil, ErrInvalidRange
	}
	records := []models.AuditRecord{}
	if count == 0 {
		return records, nil
	}
	if err := s.db.Order("id asc").Offset(start).Limit(count).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of records in the log.
func (s *AuditService) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.AuditRecord{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// VerifyChain recomputes every hash in id order and reports the first record that does not
// match its content or its predecessor.
func (s *AuditService) VerifyChain() (ChainReport, error) {
	report := ChainReport{Valid: true}
	prevHash := ""
	var lastID uint

	var batch []models.AuditRecord
	result := s.db.Order("id asc").FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			rec := &batch[i]
			report.Checked++
			expected, err := hashAuditRecord(rec)
			if err != nil {
				return err
			}
			if rec.ID <= lastID || rec.PrevHash != prevHash || rec.Hash != expected {
				report.Valid = false
				report.BrokenAt = rec.ID
				return errChainBroken
			}
			prevHash = rec.Hash
			lastID = rec.ID
		}
		return nil
	})
	if result.Error != nil && !errors.Is(result.Error, errChainBroken) {
		return ChainReport{}, result.Error
	}
	return report, nil
}

var errChainBroken = errors.New("audit chain broken")

type auditHashPayload struct {
	ID         uint   `json:"id"`
	UUID       string `json:"uuid"`
	Timestamp  string `json:"timestamp"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	ProposalID *uint  `json:"proposal_id"`
	DataRef    string `json:"data_ref"`
	PrevHash   string `json:"prev_hash"`
}

func hashAuditRecord(rec *models.AuditRecord) (string, error) {
	raw, err := json.Marshal(auditHashPayload{
		ID:         rec.ID,
		UUID:       rec.UUID,
		Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:      rec.Actor,
		Action:     string(rec.Action),
		ProposalID: rec.ProposalID,
		DataRef:    rec.DataRef,
		PrevHash:   rec.PrevHash,
	})
	if err != nil {
		return "", fmt.Errorf("encode audit record: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize audit record: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
