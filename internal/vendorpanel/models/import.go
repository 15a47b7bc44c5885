package models

// JobState is the backend-reported state of an import job.
type JobState string

const (
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// PreviewSummary counts what the backend is going to do with the uploaded rows.
type PreviewSummary struct {
	ToCreate int `json:"toCreate"`
	ToUpdate int `json:"toUpdate"`
	ToSkip   int `json:"toSkip,omitempty"`
}

type RowError struct {
	Row   int    `json:"row"`
	Title string `json:"title,omitempty"`
	SKU   string `json:"sku,omitempty"`
	Error string `json:"error"`
}

type SkippedRow struct {
	Row    int    `json:"row"`
	Title  string `json:"title,omitempty"`
	SKU    string `json:"sku,omitempty"`
	Reason string `json:"reason"`
}

// ImportPreview is the synchronous answer to a file upload.
type ImportPreview struct {
	TransactionID string         `json:"transaction_id"`
	Summary       PreviewSummary `json:"summary"`
	Message       string         `json:"message,omitempty"`
	ErrorDetails  []RowError     `json:"errorDetails,omitempty"`
	Skipped       []SkippedRow   `json:"skipped,omitempty"`
}

// HasExistingProducts mirrors the "existing products detected" warning: the backend
// explains itself in Message whenever rows would update existing products.
func (p *ImportPreview) HasExistingProducts() bool {
	return p.Message != "" && p.Summary.ToUpdate > 0
}

type ConfirmResult struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
}

// JobSummary is forwarded to the user as-is; the watcher only reads it to build the
// completion message.
type JobSummary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated,omitempty"`
	Skipped int `json:"skipped,omitempty"`
	Errors  int `json:"errors"`
}

type JobStatus struct {
	Status  JobState    `json:"status"`
	Summary *JobSummary `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
}
