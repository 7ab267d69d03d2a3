package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	proposalsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transparencity_proposals_created_total",
		Help: "Total number of proposals created",
	})
	votesCastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transparencity_votes_cast_total",
		Help: "Total number of ballots cast, by choice",
	}, []string{"choice"})
	voteChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transparencity_vote_changes_total",
		Help: "Total number of ballots changed after being cast",
	})
	statusTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transparencity_status_transitions_total",
		Help: "Total number of proposal status transitions, by target status and trigger",
	}, []string{"status", "trigger"})
	auditRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transparencity_audit_records_total",
		Help: "Total number of audit records appended",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		proposalsCreatedTotal,
		votesCastTotal,
		voteChangesTotal,
		statusTransitionsTotal,
		auditRecordsTotal,
	)
}

// IncProposalCreated increments the created proposals counter.
func IncProposalCreated() { proposalsCreatedTotal.Inc() }

// IncVoteCast increments the ballots counter for choice.
func IncVoteCast(choice string) { votesCastTotal.WithLabelValues(choice).Inc() }

// IncVoteChanged increments the changed ballots counter.
func IncVoteChanged() { voteChangesTotal.Inc() }

// IncStatusTransition records a move to status; trigger is "admin" or "deadline".
func IncStatusTransition(status, trigger string) {
	statusTransitionsTotal.WithLabelValues(status, trigger).Inc()
}

// IncAuditRecord increments the audit records counter.
func IncAuditRecord() { auditRecordsTotal.Inc() }
