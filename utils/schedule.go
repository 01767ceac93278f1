package utils

import (
	"time"

	"intakely/models"
)

// SequenceOffsets controls how far from the appointment each stage fires.
// Zero values fall back to the defaults below.
type SequenceOffsets struct {
	ReminderLead      time.Duration // before the appointment
	NoShowDelay       time.Duration // after the appointment
	ReEngagementDelay time.Duration // after the appointment
}

const (
	DefaultReminderLead      = 24 * time.Hour
	DefaultNoShowDelay       = 2 * time.Hour
	DefaultReEngagementDelay = 7 * 24 * time.Hour
)

// OffsetsFromSettings converts the per-center timing columns into durations
func OffsetsFromSettings(settings *models.CenterSettings) SequenceOffsets {
	return SequenceOffsets{
		ReminderLead:      time.Duration(settings.ReminderLeadHours) * time.Hour,
		NoShowDelay:       time.Duration(settings.NoShowDelayHours) * time.Hour,
		ReEngagementDelay: time.Duration(settings.ReEngagementDelayDays) * 24 * time.Hour,
	}
}

func (o SequenceOffsets) withDefaults() SequenceOffsets {
	if o.ReminderLead <= 0 {
		o.ReminderLead = DefaultReminderLead
	}
	if o.NoShowDelay <= 0 {
		o.NoShowDelay = DefaultNoShowDelay
	}
	if o.ReEngagementDelay <= 0 {
		o.ReEngagementDelay = DefaultReEngagementDelay
	}
	return o
}

// CalculateSchedule maps an appointment time to the target send time of each
// stage. The welcome email is anchored to now, not to the appointment. A
// computed time already in the past is kept as-is: the worker treats "due" as
// scheduled_send_at <= now, so a late-created reminder still fires on the
// next pass instead of being silently lost.
//
// Pure function; callers inject now so tests can pin the clock.
func CalculateSchedule(appointment time.Time, now time.Time, offsets SequenceOffsets) map[string]time.Time {
	offsets = offsets.withDefaults()

	return map[string]time.Time{
		models.TemplateTypeWelcome:      now,
		models.TemplateTypeReminder:     appointment.Add(-offsets.ReminderLead),
		models.TemplateTypeNoShow:       appointment.Add(offsets.NoShowDelay),
		models.TemplateTypeReEngagement: appointment.Add(offsets.ReEngagementDelay),
	}
}
