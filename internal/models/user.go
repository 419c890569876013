package models

import "time"

// User mirrors an upstream user/profile record.
type User struct {
	UserID           int64     `json:"user_id"`
	UserName         string    `json:"user_name"`
	ProfilePic       string    `json:"profile_pic"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	DOB              string    `json:"dob,omitempty"`
	MobileNum        string    `json:"mobile_num,omitempty"`
	EmailID          string    `json:"email_id"`
	LoginType        string    `json:"login_type,omitempty"`
	Verified         Flag      `json:"verified"`
	OTPVerification  Flag      `json:"otp_verification"`
	BlockedFromAdmin Flag      `json:"blocked_from_admin"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Blocked reports whether an admin has blocked the user.
func (u User) Blocked() bool { return bool(u.BlockedFromAdmin) }

// FullName joins first and last name, falling back to the handle.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.UserName
	}
}

// Report is a report filed against a user, with the reported user's profile embedded.
type Report struct {
	ReportID     int64     `json:"report_id"`
	ReportedBy   int64     `json:"reported_by"`
	ReportedUser int64     `json:"reported_user"`
	ReportText   string    `json:"report_text"`
	ReportCount  int       `json:"report_count,omitempty"`
	Profile      User      `json:"Profile"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TargetUserID is the id moderation actions on this row apply to.
func (r Report) TargetUserID() int64 {
	if r.ReportedUser != 0 {
		return r.ReportedUser
	}
	return r.Profile.UserID
}
