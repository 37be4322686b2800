package messaging

// Subjects follow {domain}.{resource}.{action}.
const (
	// SubjectAlertingSummaryQuery carries summary requests answered by reply.
	SubjectAlertingSummaryQuery = "alerting.summary.query"
	// SubjectAlertingSummarySeeded is announced after the seeder wrote data.
	SubjectAlertingSummarySeeded = "alerting.summary.seeded"
)

// QueueSummaryWorkers groups the summary responders; each request is
// answered once.
const QueueSummaryWorkers = "summary-workers"

// SubjectHealthPing is the internal subject used for latency probes.
const SubjectHealthPing = "_HEALTH.alerting.ping"

// AnyTenant matches subject scoped to every tenant, e.g.
// alerting.summary.seeded.*.
func AnyTenant(subject string) string {
	return subject + ".*"
}

// TenantSubject scopes a subject to one tenant, e.g.
// alerting.summary.seeded.acme.
func TenantSubject(subject, tenant string) string {
	return subject + "." + tenant
}
