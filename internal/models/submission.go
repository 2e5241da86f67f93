package models

// Approval states reported by the repository. The notifier only ever sees
// pending submissions but keeps the raw value for logging.
const (
	ApprovalPending = "pending"
)

// Submission is one thesis deposition fetched from the repository.
type Submission struct {
	// ID is the repository record id.
	ID string

	// Title of the thesis.
	Title string

	// Author is the first creator listed on the record.
	Author PersonName

	// Supervisors as declared in the thesis metadata, in record order.
	Supervisors []PersonName

	// Level is the free-text academic level ("Bachelor Thesis", ...).
	Level string

	// ApprovalState as reported by the repository.
	ApprovalState string
}
