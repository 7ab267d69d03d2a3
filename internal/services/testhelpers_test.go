package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/transparencity/backend/internal/models"
)

var dbSeq atomic.Int64

// setupTestDB opens an isolated in-memory database migrated with every model.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Proposal{},
		&models.Vote{},
		&models.Comment{},
		&models.OfficialResponse{},
		&models.ImplementationUpdate{},
		&models.AuditRecord{},
		&models.NotificationProvider{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// staticVerifier answers from a fixed set of verified user ids.
type staticVerifier struct {
	verified map[uint]bool
}

func verifyAll(ids ...uint) *staticVerifier {
	v := &staticVerifier{verified: map[uint]bool{}}
	for _, id := range ids {
		v.verified[id] = true
	}
	return v
}

func (v *staticVerifier) IsVerified(_ context.Context, userID uint) (bool, error) {
	return v.verified[userID], nil
}

type sentNotification struct {
	Event, Title, Message string
}

// recordingNotifier captures events instead of delivering them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) SendExternal(eventType, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{eventType, title, message})
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Event)
	}
	return out
}

// fixedClock is a settable time source for deadline tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	db        *gorm.DB
	clock     *fixedClock
	audit     *AuditService
	verifier  *staticVerifier
	notifier  *recordingNotifier
	proposals *ProposalService
	votes     *VoteService
	comments  *CommentService
	responses *ResponseService
	impl      *ImplementationService
	users     *UserService
}

var (
	admin    = Actor{UserID: 1, Role: models.RoleAdmin}
	citizen  = Actor{UserID: 2, Role: models.RoleCitizen}
	citizen2 = Actor{UserID: 3, Role: models.RoleCitizen}
	citizen3 = Actor{UserID: 4, Role: models.RoleCitizen}
	stranger = Actor{UserID: 99, Role: models.RoleCitizen}
)

func newTestEnv(t *testing.T, opts ProposalOptions) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	clock := newFixedClock()
	env := &testEnv{
		db:       db,
		clock:    clock,
		audit:    NewAuditService(db),
		verifier: verifyAll(admin.UserID, citizen.UserID, citizen2.UserID, citizen3.UserID),
		notifier: &recordingNotifier{},
	}
	env.audit.now = clock.Now
	env.proposals = NewProposalService(db, env.audit, env.verifier, env.notifier, opts)
	env.proposals.now = clock.Now
	env.votes = NewVoteService(db, env.audit, env.verifier, env.proposals)
	env.votes.now = clock.Now
	env.comments = NewCommentService(db, env.audit, env.verifier)
	env.responses = NewResponseService(db, env.audit, env.notifier)
	env.impl = NewImplementationService(db, env.audit, env.notifier)
	env.users = NewUserService(db, env.audit, nil)
	env.users.now = clock.Now
	return env
}

func (e *testEnv) createProposal(t *testing.T, title, category string) *models.Proposal {
	t.Helper()
	p, err := e.proposals.Create(context.Background(), citizen, CreateProposalInput{
		Title:       title,
		Description: "Plant trees along the river",
		Category:    category,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) auditActions(t *testing.T, proposalID uint) []models.AuditAction {
	t.Helper()
	records, err := e.audit.GetByProposal(proposalID)
	require.NoError(t, err)
	actions := make([]models.AuditAction, 0, len(records))
	for _, r := range records {
		actions = append(actions, r.Action)
	}
	return actions
}
