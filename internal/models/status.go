package models

import "strings"

// ProposalStatus is the single lifecycle enum shared by storage, services and the API.
type ProposalStatus string

const (
	StatusDraft       ProposalStatus = "draft"
	StatusSubmitted   ProposalStatus = "submitted"
	StatusUnderReview ProposalStatus = "under_review"
	StatusVoting      ProposalStatus = "voting"
	StatusApproved    ProposalStatus = "approved"
	StatusRejected    ProposalStatus = "rejected"
	StatusImplemented ProposalStatus = "implemented"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []ProposalStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusVoting,
	StatusApproved,
	StatusRejected,
	StatusImplemented,
}

var statusTransitions = map[ProposalStatus][]ProposalStatus{
	StatusDraft:       {StatusSubmitted},
	StatusSubmitted:   {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusVoting, StatusRejected},
	StatusVoting:      {StatusApproved, StatusRejected},
	StatusApproved:    {StatusImplemented},
}

// statusRank orders statuses along the lifecycle; approved and rejected share a rank
// because they are alternative outcomes of the same vote.
var statusRank = map[ProposalStatus]int{
	StatusDraft:       0,
	StatusSubmitted:   1,
	StatusUnderReview: 2,
	StatusVoting:      3,
	StatusApproved:    4,
	StatusRejected:    4,
	StatusImplemented: 5,
}

// Valid reports whether s is a known status.
func (s ProposalStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s ProposalStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusImplemented
}

// CanTransitionTo reports whether next is reachable from s in a single step. Every allowed
// step moves strictly forward along the lifecycle.
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	if s.IsTerminal() || next.Rank() <= s.Rank() {
		return false
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rank returns the position of s along the lifecycle, or -1 for unknown statuses.
func (s ProposalStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// ParseStatus accepts the canonical names plus the on-chain aliases "active" and "passed".
func ParseStatus(raw string) (ProposalStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "active":
		return StatusVoting, true
	case "passed":
		return StatusApproved, true
	}
	s := ProposalStatus(v)
	return s, s.Valid()
}

// Category classifies a proposal.
type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryEnvironment    Category = "environment"
	CategoryEducation      Category = "education"
	CategoryHealth         Category = "health"
	CategorySafety         Category = "safety"
	CategoryTransportation Category = "transportation"
	CategoryHousing        Category = "housing"
	CategoryCulture        Category = "culture"
	CategoryEconomy        Category = "economy"
	CategoryOther          Category = "other"
)

var validCategories = map[Category]bool{
	CategoryInfrastructure: true,
	CategoryEnvironment:    true,
	CategoryEducation:      true,
	CategoryHealth:         true,
	CategorySafety:         true,
	CategoryTransportation: true,
	CategoryHousing:        true,
	CategoryCulture:        true,
	CategoryEconomy:        true,
	CategoryOther:          true,
}

// ParseCategory is case-insensitive, so "Environment" and "environment" are the same category.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	return c, validCategories[c]
}

// VoteChoice is a ballot option.
type VoteChoice string

const (
	ChoiceYes     VoteChoice = "yes"
	ChoiceNo      VoteChoice = "no"
	ChoiceAbstain VoteChoice = "abstain"
)

// ParseChoice normalises a ballot option.
func ParseChoice(raw string) (VoteChoice, bool) {
	c := VoteChoice(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case ChoiceYes, ChoiceNo, ChoiceAbstain:
		return c, true
	}
	return c, false
}

// CountColumn is the proposals column holding the tally bucket for c.
func (c VoteChoice) CountColumn() string {
	switch c {
	case ChoiceYes:
		return "yes_count"
	case ChoiceNo:
		return "no_count"
	default:
		return "abstain_count"
	}
}

// Role determines what an account may do.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)
