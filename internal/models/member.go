package models

// Role is the lab position of a member. The admin capability is deliberately
// not a role: it is an independent flag that overrides every role check.
type Role string

const (
	RoleProfessor Role = "PROFESSOR"
	RoleLabLead   Role = "LAB_LEAD"
	RoleMember    Role = "MEMBER"
)

// Member represents a lab member. LoginID and Name are each unique.
type Member struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	LoginID      string `json:"login_id"`
	Password     string `json:"-"` // bcrypt hash, or plaintext pending migration
	Role         Role   `json:"role"`
	Admin        bool   `json:"admin"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	StudentID    string `json:"student_id,omitempty"`
	ResearchArea string `json:"research_area,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Degree       string `json:"degree,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	SortOrder    int    `json:"sort_order"`
}

// LoginRequest represents login request payload
type LoginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// LoginResponse represents login response payload
type LoginResponse struct {
	Token   string `json:"token"`
	LoginID string `json:"loginId"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
}

// CreateMemberRequest is the admin member-creation payload
type CreateMemberRequest struct {
	Name      string `json:"name"`
	LoginID   string `json:"loginId"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	Admin     *bool  `json:"admin"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Degree    string `json:"degree"`
	StudentID string `json:"studentId"`
}

// UpdateMemberRequest is the admin member-update payload. Pointer fields
// distinguish "leave unchanged" from "clear".
type UpdateMemberRequest struct {
	Name   *string `json:"name"`
	Degree *string `json:"degree"`
	Role   *Role   `json:"role"`
	Admin  *bool   `json:"admin"`
	Email  *string `json:"email"`
}

// UpdateProfileRequest is the self-service profile payload
type UpdateProfileRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Degree   string `json:"degree"`
	PhotoURL string `json:"photoUrl"`
}

// ChangePasswordRequest is the self-service password payload
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
