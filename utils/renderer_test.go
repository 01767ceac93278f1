package utils

import (
	"testing"
	"time"

	"intakely/models"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	data := TemplateData{
		"firstName":  "Maria",
		"centerName": "Hope Recovery Center",
	}

	out := RenderTemplate("Hi {{firstName}}, welcome to {{centerName}}!", data)
	assert.Equal(t, "Hi Maria, welcome to Hope Recovery Center!", out)
}

func TestRenderTemplateRepeatedPlaceholder(t *testing.T) {
	out := RenderTemplate("{{firstName}} {{firstName}}", TemplateData{"firstName": "Sam"})
	assert.Equal(t, "Sam Sam", out)
}

func TestRenderTemplateUnknownPlaceholderKeptVerbatim(t *testing.T) {
	out := RenderTemplate("Hi {{firstName}}, see you {{appointmentDate}}", TemplateData{
		"firstName": "Maria",
	})
	assert.Equal(t, "Hi Maria, see you {{appointmentDate}}", out)
}

func TestRenderTemplateIdempotent(t *testing.T) {
	data := TemplateData{"firstName": "Maria"}
	once := RenderTemplate("Hi {{firstName}}", data)
	twice := RenderTemplate(once, data)
	assert.Equal(t, once, twice)
}

func TestRenderTemplateTimeValues(t *testing.T) {
	date := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

	out := RenderTemplate("See you on {{date}}", TemplateData{"date": date})
	assert.Equal(t, "See you on Monday, January 15, 2024", out)

	out = RenderTemplate("See you on {{date}}", TemplateData{"date": &date})
	assert.Equal(t, "See you on Monday, January 15, 2024", out)

	var nilDate *time.Time
	out = RenderTemplate("See you on {{date}}", TemplateData{"date": nilDate})
	assert.Equal(t, "See you on ", out)
}

func TestFormatLongDate(t *testing.T) {
	assert.Equal(t, "Monday, January 15, 2024",
		FormatLongDate(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Wednesday, March 20, 2024",
		FormatLongDate(time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)))
}

func TestFormatTimeOfDay(t *testing.T) {
	assert.Equal(t, "2:00 PM", FormatTimeOfDay(time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "9:05 AM", FormatTimeOfDay(time.Date(2024, 3, 20, 9, 5, 0, 0, time.UTC)))
}

func TestBuildTemplateData(t *testing.T) {
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	client := &models.Client{
		FirstName:       "Maria",
		LastName:        "Lopez",
		Email:           "maria@example.com",
		Phone:           "555-0100",
		AppointmentDate: &appointment,
	}
	settings := &models.CenterSettings{
		CenterName:     "Hope Recovery Center",
		CenterAddress:  "12 Main St",
		CenterPhone:    "555-0199",
		StaffName:      "Jordan",
		StaffSignature: "Warmly,\nJordan",
	}

	data := BuildTemplateData(client, settings)

	assert.Equal(t, "Maria", data["firstName"])
	assert.Equal(t, "Maria Lopez", data["fullName"])
	assert.Equal(t, "Hope Recovery Center", data["centerName"])
	assert.Equal(t, "Warmly,\nJordan", data["signature"])
	assert.Equal(t, "Wednesday, March 20, 2024", data["appointmentDate"])
	assert.Equal(t, "2:00 PM", data["appointmentTime"])
}

func TestBuildTemplateDataFallbacks(t *testing.T) {
	client := &models.Client{FirstName: "Sam", LastName: "Reed", Email: "sam@example.com"}
	settings := &models.CenterSettings{CenterName: "Hope Recovery Center"}

	data := BuildTemplateData(client, settings)

	// No signature configured: fall back to a generated one
	assert.Equal(t, "Best regards,\nHope Recovery Center", data["signature"])

	// No appointment: the placeholders stay absent so they render verbatim
	_, hasDate := data["appointmentDate"]
	assert.False(t, hasDate)
}

func TestBuiltinTemplatesRenderCleanly(t *testing.T) {
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	client := &models.Client{
		FirstName:       "Maria",
		LastName:        "Lopez",
		Email:           "maria@example.com",
		AppointmentDate: &appointment,
	}
	settings := &models.CenterSettings{
		CenterName: "Hope Recovery Center",
		StaffName:  "Jordan",
	}
	data := BuildTemplateData(client, settings)

	for _, tmpl := range models.BuiltinTemplates {
		subject := RenderTemplate(tmpl.Subject, data)
		body := RenderTemplate(tmpl.Body, data)
		assert.NotContains(t, subject, "{{", "template %s subject has unresolved placeholders", tmpl.Type)
		assert.NotContains(t, body, "{{", "template %s body has unresolved placeholders", tmpl.Type)
	}
}
