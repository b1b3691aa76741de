package privacy

const (
	DataCategoryCustomerEmails = "customer_emails"
	DataCategoryOutbox         = "email_outbox"
	DataCategoryAudit          = "audit"
	DataCategoryJobRuns        = "job_runs"
)
