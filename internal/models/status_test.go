package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProposalStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from ProposalStatus
		to   ProposalStatus
		want bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusSubmitted, StatusUnderReview, true},
		{StatusSubmitted, StatusRejected, true},
		{StatusUnderReview, StatusVoting, true},
		{StatusVoting, StatusApproved, true},
		{StatusVoting, StatusRejected, true},
		{StatusApproved, StatusImplemented, true},
		{StatusSubmitted, StatusVoting, false},
		{StatusVoting, StatusSubmitted, false},
		{StatusRejected, StatusVoting, false},
		{StatusImplemented, StatusApproved, false},
		{StatusApproved, StatusRejected, false},
		{StatusVoting, StatusVoting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestProposalStatus_TransitionsNeverRegress(t *testing.T) {
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			if from.CanTransitionTo(to) {
				assert.Greater(t, to.Rank(), from.Rank(), "%s -> %s", from, to)
			}
		}
	}
}

func TestProposalStatus_Terminal(t *testing.T) {
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusImplemented.IsTerminal())
	assert.False(t, StatusVoting.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("Active")
	assert.True(t, ok)
	assert.Equal(t, StatusVoting, s)

	s, ok = ParseStatus("passed")
	assert.True(t, ok)
	assert.Equal(t, StatusApproved, s)

	s, ok = ParseStatus(" under_review ")
	assert.True(t, ok)
	assert.Equal(t, StatusUnderReview, s)

	_, ok = ParseStatus("archived")
	assert.False(t, ok)
	assert.Equal(t, -1, ProposalStatus("archived").Rank())
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Environment")
	assert.True(t, ok)
	assert.Equal(t, CategoryEnvironment, c)

	_, ok = ParseCategory("astrology")
	assert.False(t, ok)
}

func TestParseChoice(t *testing.T) {
	c, ok := ParseChoice("YES")
	assert.True(t, ok)
	assert.Equal(t, ChoiceYes, c)
	assert.Equal(t, "yes_count", c.CountColumn())
	assert.Equal(t, "no_count", ChoiceNo.CountColumn())
	assert.Equal(t, "abstain_count", ChoiceAbstain.CountColumn())

	_, ok = ParseChoice("maybe")
	assert.False(t, ok)
}

func TestProposal_VotingWindow(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)
	p := &Proposal{Status: StatusVoting, VotingEndsAt: &end}

	assert.True(t, p.VotingOpen(now))
	assert.False(t, p.VotingExpired(now))

	later := end.Add(time.Second)
	assert.False(t, p.VotingOpen(later))
	assert.True(t, p.VotingExpired(later))

	p.Status = StatusApproved
	assert.False(t, p.VotingOpen(now))
	assert.False(t, p.VotingExpired(later))
}

func TestProposal_TallyAndOutcome(t *testing.T) {
	p := &Proposal{YesCount: 2, NoCount: 1}
	assert.Equal(t, VoteTally{Yes: 2, No: 1, Abstain: 0, Total: 3}, p.Tally())
	assert.Equal(t, StatusApproved, p.Outcome())

	p.YesCount = 1
	assert.Equal(t, StatusRejected, p.Outcome(), "ties favor rejection")

	p.YesCount = 0
	assert.Equal(t, StatusRejected, p.Outcome())
}
