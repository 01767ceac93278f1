package models

import (
	"time"

	"gorm.io/gorm"
)

// Sequence item statuses. Transitions are monotonic:
// scheduled -> sending -> sent | failed, or scheduled -> cancelled.
const (
	SequenceStatusScheduled = "scheduled"
	SequenceStatusSending   = "sending"
	SequenceStatusSent      = "sent"
	SequenceStatusFailed    = "failed"
	SequenceStatusCancelled = "cancelled"
)

// SequenceItem represents one scheduled outbound email tied to a client and
// a template type. At most one item per (client, template type) pair is
// active (status = scheduled) at any time.
type SequenceItem struct {
	gorm.Model
	ClientID uint `gorm:"not null;index:idx_sequence_items_client_type,priority:1" json:"client_id"`

	TemplateType    string     `gorm:"not null;index:idx_sequence_items_client_type,priority:2" json:"template_type"`
	ScheduledSendAt time.Time  `gorm:"not null;index:idx_sequence_items_due,priority:2" json:"scheduled_send_at"`
	SentAt          *time.Time `json:"sent_at"`

	Status       string  `gorm:"default:'scheduled';index:idx_sequence_items_due,priority:1" json:"status"` // scheduled, sending, sent, failed, cancelled
	ErrorMessage *string `json:"error_message"`

	// Relations
	Client Client `json:"-"`
}

// Terminal reports whether the item can no longer change state
func (s *SequenceItem) Terminal() bool {
	switch s.Status {
	case SequenceStatusSent, SequenceStatusFailed, SequenceStatusCancelled:
		return true
	}
	return false
}

// SentEmail is a write-once audit record of a completed delivery attempt.
// History views read it; the worker only appends to it.
type SentEmail struct {
	gorm.Model
	ClientID uint `gorm:"not null;index" json:"client_id"`

	Recipient    string    `gorm:"not null" json:"recipient"`
	Subject      string    `gorm:"not null" json:"subject"`
	Body         string    `json:"body"`
	TemplateType string    `gorm:"not null" json:"template_type"`
	MessageID    string    `json:"message_id"`
	SentAt       time.Time `gorm:"not null" json:"sent_at"`

	// Relations
	Client Client `json:"-"`
}
