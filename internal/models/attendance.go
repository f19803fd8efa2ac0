package models

import "time"

// Attendance is one row per (member, work date). CheckInAt is set once on the
// first check-in of the day; CheckOutAt is overwritten on every check-out.
type Attendance struct {
	ID         int64      `json:"id"`
	MemberID   int64      `json:"member_id"`
	WorkDate   string     `json:"work_date"` // YYYY-MM-DD in the lab timezone
	CheckInAt  *time.Time `json:"check_in_at"`
	CheckOutAt *time.Time `json:"check_out_at"`
}

// AttendanceStats is the admin monthly report payload
type AttendanceStats struct {
	Start   string       `json:"start"`
	End     string       `json:"end"`
	Members []Member     `json:"members"`
	Records []Attendance `json:"records"`
}
