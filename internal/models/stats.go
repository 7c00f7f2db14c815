package models

// OrganizationStats is the cross-entity summary for one organization,
// computed freshly on every call over the full tenant dataset.
type OrganizationStats struct {
	TotalControls      int `json:"total_controls"`
	CompletedControls  int `json:"completed_controls"`
	InProgressControls int `json:"in_progress_controls"`
	NotStartedControls int `json:"not_started_controls"`
	TotalTasks         int `json:"total_tasks"`
	CompletedTasks     int `json:"completed_tasks"`
	OverdueTasks       int `json:"overdue_tasks"`
	TotalDocuments     int `json:"total_documents"`
	ExpiringDocuments  int `json:"expiring_documents"`
}
