package models

import "time"

// LabInfo is the single public description of the lab
type LabInfo struct {
	ID            int64     `json:"id"`
	LabName       string    `json:"lab_name"`
	Description   string    `json:"description"`
	ResearchAreas string    `json:"research_areas,omitempty"`
	Facilities    string    `json:"facilities,omitempty"`
	Location      string    `json:"location"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	ContactPhone  string    `json:"contact_phone,omitempty"`
	DirectorID    *int64    `json:"director_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LabInfoRequest is the admin upsert payload
type LabInfoRequest struct {
	LabName       string `json:"labName"`
	Description   string `json:"description"`
	ResearchAreas string `json:"researchAreas"`
	Facilities    string `json:"facilities"`
	Location      string `json:"location"`
	ContactEmail  string `json:"contactEmail"`
	ContactPhone  string `json:"contactPhone"`
	DirectorID    *int64 `json:"directorId"`
}
