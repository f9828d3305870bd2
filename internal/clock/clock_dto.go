package clock

type ClockInRequest struct {
	ProjectName  *string `json:"project_name"`
	IssueID      *int64  `json:"issue_id"`
	IssueTitle   *string `json:"issue_title"`
	IssueProject *string `json:"issue_project"`
	Notes        *string `json:"notes"`
}

type ClockSessionResponse struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	ClockIn      string   `json:"clock_in"`
	ClockOut     *string  `json:"clock_out,omitempty"`
	TotalHours   *float64 `json:"total_hours,omitempty"`
	ProjectName  *string  `json:"project_name,omitempty"`
	IssueID      *int64   `json:"issue_id,omitempty"`
	IssueTitle   *string  `json:"issue_title,omitempty"`
	IssueProject *string  `json:"issue_project,omitempty"`
	Status       string   `json:"status"`
	Reconciled   bool     `json:"reconciled"`
	Notes        *string  `json:"notes,omitempty"`
}
