package models

import (
	"time"

	"gorm.io/gorm"
)

// Client lifecycle statuses
const (
	ClientStatusIntake      = "intake"
	ClientStatusConfirmed   = "confirmed"
	ClientStatusReminded    = "reminded"
	ClientStatusNoShow      = "no_show"
	ClientStatusRescheduled = "rescheduled"
	ClientStatusCompleted   = "completed"
)

// Client represents a person receiving outreach from the center
type Client struct {
	gorm.Model

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"not null;index" json:"email"`
	Phone     string `json:"phone"`

	IntakeDate      time.Time  `gorm:"not null" json:"intake_date"`
	AppointmentDate *time.Time `gorm:"index" json:"appointment_date"`

	Status string `gorm:"default:'intake';index" json:"status"` // intake, confirmed, reminded, no_show, rescheduled, completed
	Notes  string `json:"notes"`

	// Relations
	SequenceItems []SequenceItem `gorm:"foreignKey:ClientID" json:"sequence_items,omitempty"`
	SentEmails    []SentEmail    `gorm:"foreignKey:ClientID" json:"sent_emails,omitempty"`
}

// FullName returns the client's display name used in templates and logs
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ValidStatus reports whether s is one of the known client statuses
func ValidStatus(s string) bool {
	switch s {
	case ClientStatusIntake, ClientStatusConfirmed, ClientStatusReminded,
		ClientStatusNoShow, ClientStatusRescheduled, ClientStatusCompleted:
		return true
	}
	return false
}
