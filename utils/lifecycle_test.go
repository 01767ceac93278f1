package utils

import (
	"log"
	"os"
	"testing"
	"time"

	"intakely/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestLifecycle(t *testing.T, db *gorm.DB, now time.Time) *SequenceLifecycle {
	t.Helper()

	store := newTestStore(t, db, now)
	lifecycle := NewSequenceLifecycle(db, store, log.New(os.Stdout, "TEST: ", log.LstdFlags))
	lifecycle.Now = func() time.Time { return now }
	return lifecycle
}

func TestOnClientCreatedSchedulesBatch(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, &appointment)

	items, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestOnClientCreatedWithoutAppointment(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, nil)

	items, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.TemplateTypeWelcome, items[0].TemplateType)
}

func TestOnClientCreatedRejectsBadEmail(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, nil)
	client.Email = "not-an-email"

	_, err := lifecycle.OnClientCreated(client)
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.SequenceItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOnClientCreatedUsesSettingsOffsets(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)

	settings, err := models.GetSettings(db)
	require.NoError(t, err)
	settings.ReminderLeadHours = 48
	require.NoError(t, db.Save(settings).Error)

	client := createTestClient(t, db, &appointment)
	items, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	byType := itemsByType(items)
	assert.Equal(t, appointment.Add(-48*time.Hour), byType[models.TemplateTypeReminder].ScheduledSendAt.UTC())
}

func TestOnAppointmentChangedReschedules(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, &appointment)

	_, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	newDate := time.Date(2024, 4, 2, 11, 0, 0, 0, time.UTC)
	items, err := lifecycle.OnAppointmentChanged(client, newDate)
	require.NoError(t, err)
	require.Len(t, items, 4)

	byType := itemsByType(items)
	assert.Equal(t, newDate.Add(-24*time.Hour), byType[models.TemplateTypeReminder].ScheduledSendAt.UTC())

	var scheduled int64
	require.NoError(t, db.Model(&models.SequenceItem{}).
		Where("client_id = ? AND status = ?", client.ID, models.SequenceStatusScheduled).
		Count(&scheduled).Error)
	assert.EqualValues(t, 4, scheduled)
}

func TestOnAppointmentClearedCancelsAnchoredItems(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, &appointment)

	_, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	client.AppointmentDate = nil
	require.NoError(t, lifecycle.OnAppointmentCleared(client))

	items, err := lifecycle.Store.ClientSequences(client.ID)
	require.NoError(t, err)
	require.Len(t, items, 4)
	for _, item := range items {
		if item.TemplateType == models.TemplateTypeWelcome {
			assert.Equal(t, models.SequenceStatusScheduled, item.Status)
		} else {
			assert.Equal(t, models.SequenceStatusCancelled, item.Status, "type %s", item.TemplateType)
		}
	}
}

func TestOnClientDeletedRemovesSchedule(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, &appointment)

	_, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	require.NoError(t, lifecycle.OnClientDeleted(client.ID))

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.SequenceItem{}).
		Where("client_id = ?", client.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestOnStatusChangedCompletedCancelsOnlyNoShow(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, &appointment)

	_, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	client.Status = models.ClientStatusCompleted
	require.NoError(t, lifecycle.OnStatusChanged(client, models.ClientStatusConfirmed, models.ClientStatusCompleted))

	items, err := lifecycle.Store.ClientSequences(client.ID)
	require.NoError(t, err)
	for _, item := range items {
		if item.TemplateType == models.TemplateTypeNoShow {
			assert.Equal(t, models.SequenceStatusCancelled, item.Status)
		} else {
			assert.Equal(t, models.SequenceStatusScheduled, item.Status, "type %s", item.TemplateType)
		}
	}
}

func TestOnStatusChangedNoShowCreatesMissingItem(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)

	// Intake without an appointment date: only the welcome email exists
	client := createTestClient(t, db, nil)
	_, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	client.Status = models.ClientStatusNoShow
	require.NoError(t, lifecycle.OnStatusChanged(client, models.ClientStatusIntake, models.ClientStatusNoShow))

	var item models.SequenceItem
	require.NoError(t, db.
		Where("client_id = ? AND template_type = ?", client.ID, models.TemplateTypeNoShow).
		First(&item).Error)
	assert.Equal(t, models.SequenceStatusScheduled, item.Status)
	assert.Equal(t, now.Add(DefaultNoShowDelay), item.ScheduledSendAt.UTC())
}

func TestOnStatusChangedNoShowKeepsExistingItem(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)
	appointment := time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, &appointment)

	_, err := lifecycle.OnClientCreated(client)
	require.NoError(t, err)

	client.Status = models.ClientStatusNoShow
	require.NoError(t, lifecycle.OnStatusChanged(client, models.ClientStatusConfirmed, models.ClientStatusNoShow))

	// Still exactly one no-show item, at its original appointment-anchored time
	var items []models.SequenceItem
	require.NoError(t, db.
		Where("client_id = ? AND template_type = ?", client.ID, models.TemplateTypeNoShow).
		Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, appointment.Add(DefaultNoShowDelay), items[0].ScheduledSendAt.UTC())
}

func TestOnStatusChangedSameStatusIsNoOp(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)
	lifecycle := newTestLifecycle(t, db, now)
	client := createTestClient(t, db, nil)

	require.NoError(t, lifecycle.OnStatusChanged(client, models.ClientStatusIntake, models.ClientStatusIntake))

	var count int64
	require.NoError(t, db.Model(&models.SequenceItem{}).Count(&count).Error)
	assert.Zero(t, count)
}
