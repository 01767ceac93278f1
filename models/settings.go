package models

import "gorm.io/gorm"

// CenterSettings holds the single per-deployment organization record: contact
// details used in templates, the Gmail connection, and sequence timing
// overrides. There is exactly one row.
type CenterSettings struct {
	gorm.Model

	CenterName    string `gorm:"not null;default:'Community Center'" json:"center_name"`
	CenterAddress string `json:"center_address"`
	CenterPhone   string `json:"center_phone"`

	StaffName      string `json:"staff_name"`
	StaffSignature string `json:"staff_signature"`

	// ========= Gmail Connection =========
	GmailConnected    bool   `gorm:"default:false" json:"gmail_connected"`
	GmailEmail        string `json:"gmail_email"`
	GmailRefreshToken string `json:"-"` // Encrypted in application layer

	// ========= Sequence Timing =========
	ReminderLeadHours     int `gorm:"default:24" json:"reminder_lead_hours"`
	NoShowDelayHours      int `gorm:"default:2" json:"no_show_delay_hours"`
	ReEngagementDelayDays int `gorm:"default:7" json:"re_engagement_delay_days"`
}

// Sanitize clears secrets before the record is returned over the API
func (s *CenterSettings) Sanitize() {
	s.GmailRefreshToken = ""
}
