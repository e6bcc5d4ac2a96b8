package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	sharedContactsTable = "shared_contacts"
	quizAttemptsTable   = "quiz_attempts"
	llmRequestsTable    = "llm_requests"
)

var (
	sharedContactsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "account_id", Type: field.TypeString},
		{Name: "phone", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "shared_at", Type: field.TypeInt64},
	}
	sharedContacts = &schema.Table{
		Name:       sharedContactsTable,
		Columns:    sharedContactsColumns,
		PrimaryKey: []*schema.Column{sharedContactsColumns[0]},
	}

	quizAttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "account_id", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt},
		{Name: "percentage", Type: field.TypeFloat64},
		{Name: "elapsed_ms", Type: field.TypeInt64},
		{Name: "finished_at", Type: field.TypeInt64},
	}
	quizAttempts = &schema.Table{
		Name:       quizAttemptsTable,
		Columns:    quizAttemptsColumns,
		PrimaryKey: []*schema.Column{quizAttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizattempt_subject", Columns: []*schema.Column{quizAttemptsColumns[2]}},
		},
	}

	llmRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "cost_usd", Type: field.TypeFloat64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
	}
	llmRequests = &schema.Table{
		Name:       llmRequestsTable,
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequest_purpose", Columns: []*schema.Column{llmRequestsColumns[3]}},
		},
	}

	// tables lists every table the activity log owns.
	tables = []*schema.Table{
		sharedContacts,
		quizAttempts,
		llmRequests,
	}
)
