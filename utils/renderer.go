package utils

import (
	"strings"
	"time"

	"intakely/models"
)

// TemplateData maps placeholder names to their values. Values are strings or
// time.Time; times are rendered as a long localized date.
type TemplateData map[string]interface{}

// RenderTemplate substitutes every {{fieldName}} placeholder that has a value
// in data. Placeholders with no matching key are left verbatim so missing
// data stays visible to staff instead of disappearing. Rendering is pure and
// order-independent; applying the same data twice is a no-op.
func RenderTemplate(template string, data TemplateData) string {
	rendered := template
	for key, value := range data {
		rendered = strings.ReplaceAll(rendered, "{{"+key+"}}", stringify(value))
	}
	return rendered
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return FormatLongDate(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatLongDate(*v)
	case nil:
		return ""
	default:
		return ""
	}
}

// FormatLongDate renders a date the way it appears in outgoing emails,
// e.g. "Monday, January 15, 2024"
func FormatLongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// FormatTimeOfDay renders the clock part, e.g. "2:00 PM"
func FormatTimeOfDay(t time.Time) string {
	return t.Format("3:04 PM")
}

// BuildTemplateData assembles the canonical variable set available to every
// template from the client record and center settings.
func BuildTemplateData(client *models.Client, settings *models.CenterSettings) TemplateData {
	data := TemplateData{
		"firstName":     client.FirstName,
		"lastName":      client.LastName,
		"fullName":      client.FullName(),
		"email":         client.Email,
		"phone":         client.Phone,
		"centerName":    settings.CenterName,
		"centerAddress": settings.CenterAddress,
		"centerPhone":   settings.CenterPhone,
		"staffName":     settings.StaffName,
		"signature":     settings.StaffSignature,
	}
	if data["signature"] == "" {
		data["signature"] = "Best regards,\n" + settings.CenterName
	}
	if client.AppointmentDate != nil {
		data["appointmentDate"] = FormatLongDate(*client.AppointmentDate)
		data["appointmentTime"] = FormatTimeOfDay(*client.AppointmentDate)
	}
	return data
}
