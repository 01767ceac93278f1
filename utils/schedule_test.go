package utils

import (
	"testing"
	"time"

	"intakely/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSchedule(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

	schedule := CalculateSchedule(appointment, now, SequenceOffsets{})

	require.Len(t, schedule, 4)
	assert.Equal(t, now, schedule[models.TemplateTypeWelcome])
	assert.Equal(t, time.Date(2024, 3, 19, 14, 0, 0, 0, time.UTC), schedule[models.TemplateTypeReminder])
	assert.Equal(t, time.Date(2024, 3, 20, 16, 0, 0, 0, time.UTC), schedule[models.TemplateTypeNoShow])
	assert.Equal(t, time.Date(2024, 3, 27, 14, 0, 0, 0, time.UTC), schedule[models.TemplateTypeReEngagement])
}

func TestCalculateScheduleCustomOffsets(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

	schedule := CalculateSchedule(appointment, now, SequenceOffsets{
		ReminderLead:      48 * time.Hour,
		NoShowDelay:       4 * time.Hour,
		ReEngagementDelay: 14 * 24 * time.Hour,
	})

	assert.Equal(t, time.Date(2024, 3, 18, 14, 0, 0, 0, time.UTC), schedule[models.TemplateTypeReminder])
	assert.Equal(t, time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC), schedule[models.TemplateTypeNoShow])
	assert.Equal(t, time.Date(2024, 4, 3, 14, 0, 0, 0, time.UTC), schedule[models.TemplateTypeReEngagement])
}

func TestCalculateScheduleKeepsPastTimes(t *testing.T) {
	// Client intakes the morning of the appointment: the reminder slot is
	// already in the past and must be kept, not clamped or dropped.
	now := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

	schedule := CalculateSchedule(appointment, now, SequenceOffsets{})

	reminder := schedule[models.TemplateTypeReminder]
	assert.True(t, reminder.Before(now))
	assert.Equal(t, time.Date(2024, 3, 19, 14, 0, 0, 0, time.UTC), reminder)
}

func TestOffsetsFromSettings(t *testing.T) {
	settings := &models.CenterSettings{
		ReminderLeadHours:     36,
		NoShowDelayHours:      3,
		ReEngagementDelayDays: 10,
	}

	offsets := OffsetsFromSettings(settings)

	assert.Equal(t, 36*time.Hour, offsets.ReminderLead)
	assert.Equal(t, 3*time.Hour, offsets.NoShowDelay)
	assert.Equal(t, 240*time.Hour, offsets.ReEngagementDelay)
}

func TestOffsetsWithDefaults(t *testing.T) {
	offsets := SequenceOffsets{}.withDefaults()

	assert.Equal(t, DefaultReminderLead, offsets.ReminderLead)
	assert.Equal(t, DefaultNoShowDelay, offsets.NoShowDelay)
	assert.Equal(t, DefaultReEngagementDelay, offsets.ReEngagementDelay)

	partial := SequenceOffsets{ReminderLead: 12 * time.Hour}.withDefaults()
	assert.Equal(t, 12*time.Hour, partial.ReminderLead)
	assert.Equal(t, DefaultNoShowDelay, partial.NoShowDelay)
}
