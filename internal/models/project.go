package models

import "time"

// ProjectStatus enumerates the lifecycle states of a project
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectOngoing   ProjectStatus = "ONGOING"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectSuspended ProjectStatus = "SUSPENDED"
)

// ValidProjectStatus reports whether s is one of the known states
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectPlanning, ProjectOngoing, ProjectCompleted, ProjectSuspended:
		return true
	}
	return false
}

// Project is a lab research project
type Project struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Summary     string        `json:"summary,omitempty"`
	Status      ProjectStatus `json:"status"`
	Members     string        `json:"members,omitempty"`
	CreatedByID *int64        `json:"created_by_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectPage is a paginated project listing
type ProjectPage struct {
	Content       []Project `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// CreateProjectRequest is the project creation/update payload
type CreateProjectRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Summary     string        `json:"summary"`
	Status      ProjectStatus `json:"status"`
	Members     string        `json:"members"`
}

// UpdateProjectStatusRequest changes only the status
type UpdateProjectStatusRequest struct {
	Status ProjectStatus `json:"status"`
}
