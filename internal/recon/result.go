package recon

import "fmt"

// RecordError captures one failed record inside a batch run.
type RecordError struct {
	RecordID string `json:"record_id"`
	Message  string `json:"message"`
}

// Result accumulates the outcome of one batch procedure. Each record is
// processed independently; a failed record is counted and skipped, never
// aborting the run.
type Result struct {
	Processed int           `json:"processed"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Merged    int           `json:"merged"`
	Skipped   int           `json:"skipped"`
	Errors    []RecordError `json:"errors"`
}

func (r *Result) recordError(id string, err error) {
	r.Errors = append(r.Errors, RecordError{RecordID: id, Message: err.Error()})
}

func (r Result) String() string {
	return fmt.Sprintf("processed=%d created=%d updated=%d merged=%d skipped=%d errors=%d",
		r.Processed, r.Created, r.Updated, r.Merged, r.Skipped, len(r.Errors))
}
