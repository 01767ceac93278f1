package models

import "gorm.io/gorm"

// The four fixed outreach stages
const (
	TemplateTypeWelcome      = "welcome"
	TemplateTypeReminder     = "reminder"
	TemplateTypeNoShow       = "no_show"
	TemplateTypeReEngagement = "re_engagement"
)

// TemplateTypes lists the stages in send order
var TemplateTypes = []string{
	TemplateTypeWelcome,
	TemplateTypeReminder,
	TemplateTypeNoShow,
	TemplateTypeReEngagement,
}

// EmailTemplate represents one editable outreach email. Exactly one template
// per type is marked default; templates are edited or reset, never deleted.
type EmailTemplate struct {
	gorm.Model

	Type      string `gorm:"not null;index" json:"type"` // welcome, reminder, no_show, re_engagement
	Name      string `gorm:"not null" json:"name"`
	Subject   string `gorm:"not null" json:"subject"`
	Body      string `gorm:"not null" json:"body"`
	IsDefault bool   `gorm:"default:false;index" json:"is_default"`
}

// ValidTemplateType reports whether t is one of the four stage types
func ValidTemplateType(t string) bool {
	for _, known := range TemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BuiltinTemplates are the seed templates every center starts with. They are
// also what a template is restored to when staff reset it.
var BuiltinTemplates = []EmailTemplate{
	{
		Type:      TemplateTypeWelcome,
		Name:      "Welcome",
		Subject:   "Welcome to {{centerName}}, {{firstName}}!",
		IsDefault: true,
		Body: "Hi {{firstName}},\n\n" +
			"Thank you for reaching out to {{centerName}}. We received your intake form and " +
			"we're glad you took this step.\n\n" +
			"Your appointment is scheduled for {{appointmentDate}} at {{appointmentTime}}. " +
			"If you have any questions before then, just reply to this email or call us at {{centerPhone}}.\n\n" +
			"{{signature}}",
	},
	{
		Type:      TemplateTypeReminder,
		Name:      "Appointment Reminder",
		Subject:   "Reminder: your appointment at {{centerName}} tomorrow",
		IsDefault: true,
		Body: "Hi {{firstName}},\n\n" +
			"This is a friendly reminder that your appointment at {{centerName}} is on " +
			"{{appointmentDate}} at {{appointmentTime}}.\n\n" +
			"We're located at {{centerAddress}}. If you need to reschedule, reply to this " +
			"email or call {{centerPhone}}.\n\n" +
			"See you soon,\n{{signature}}",
	},
	{
		Type:      TemplateTypeNoShow,
		Name:      "Missed Appointment",
		Subject:   "We missed you today, {{firstName}}",
		IsDefault: true,
		Body: "Hi {{firstName}},\n\n" +
			"We noticed you weren't able to make your appointment at {{centerName}} today. " +
			"That's completely okay - things come up.\n\n" +
			"If you'd like to set up a new time, reply to this email or call us at " +
			"{{centerPhone}} and we'll find a time that works for you.\n\n" +
			"{{signature}}",
	},
	{
		Type:      TemplateTypeReEngagement,
		Name:      "Checking In",
		Subject:   "Checking in from {{centerName}}",
		IsDefault: true,
		Body: "Hi {{firstName}},\n\n" +
			"It's been about a week since your scheduled appointment with {{centerName}} and " +
			"we wanted to check in. Our doors are always open, and we'd love to help whenever " +
			"you're ready.\n\n" +
			"Reply to this email or call {{centerPhone}} any time.\n\n" +
			"Take care,\n{{signature}}",
	},
}
