package utils

import (
	"errors"
	"fmt"
	"log"
	"time"

	"intakely/models"

	"gorm.io/gorm"
)

// ErrStatusConflict is returned when a status transition is refused because
// the item is no longer in the expected state (already claimed, cancelled or
// finished). Terminal states are never overwritten.
var ErrStatusConflict = errors.New("sequence item is not in a transitionable state")

// SequenceStore owns all reads and writes of sequence_items. Both the
// lifecycle manager (writer) and the worker (consumer) go through it so the
// status guards live in one place.
type SequenceStore struct {
	DB     *gorm.DB
	Logger *log.Logger

	// Now is the clock used for the welcome anchor; tests pin it
	Now func() time.Time
}

func NewSequenceStore(db *gorm.DB, logger *log.Logger) *SequenceStore {
	return &SequenceStore{
		DB:     db,
		Logger: logger,
		Now:    time.Now,
	}
}

// CreateBatch schedules the outreach sequence for a client: the welcome
// email anchored to now and, when an appointment is set, the reminder,
// no-show and re-engagement emails anchored to it. Any still-scheduled items
// for the client are superseded first. All-or-nothing: a partial batch is
// worse than none, so the whole thing runs in one transaction.
func (ss *SequenceStore) CreateBatch(clientID uint, appointmentDate *time.Time, offsets SequenceOffsets) ([]models.SequenceItem, error) {
	var created []models.SequenceItem
	err := ss.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = ss.createBatchTx(tx, clientID, appointmentDate, offsets)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sequence batch for client %d: %w", clientID, err)
	}
	return created, nil
}

func (ss *SequenceStore) createBatchTx(tx *gorm.DB, clientID uint, appointmentDate *time.Time, offsets SequenceOffsets) ([]models.SequenceItem, error) {
	// Supersede whatever is still pending for this client
	if err := cancelPendingTx(tx, clientID, ""); err != nil {
		return nil, err
	}

	now := ss.Now()

	items := []models.SequenceItem{{
		ClientID:        clientID,
		TemplateType:    models.TemplateTypeWelcome,
		ScheduledSendAt: now,
		Status:          models.SequenceStatusScheduled,
	}}

	if appointmentDate != nil {
		schedule := CalculateSchedule(*appointmentDate, now, offsets)
		for _, ttype := range []string{
			models.TemplateTypeReminder,
			models.TemplateTypeNoShow,
			models.TemplateTypeReEngagement,
		} {
			items = append(items, models.SequenceItem{
				ClientID:        clientID,
				TemplateType:    ttype,
				ScheduledSendAt: schedule[ttype],
				Status:          models.SequenceStatusScheduled,
			})
		}
	}

	if err := tx.Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateSingle schedules one item of the given type, superseding any
// still-scheduled item of that type for the client. Used when a client is
// marked no-show and the no-show email was never scheduled.
func (ss *SequenceStore) CreateSingle(clientID uint, templateType string, sendAt time.Time) (*models.SequenceItem, error) {
	item := models.SequenceItem{
		ClientID:        clientID,
		TemplateType:    templateType,
		ScheduledSendAt: sendAt,
		Status:          models.SequenceStatusScheduled,
	}
	err := ss.DB.Transaction(func(tx *gorm.DB) error {
		if err := cancelPendingTx(tx, clientID, templateType); err != nil {
			return err
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s email for client %d: %w", templateType, clientID, err)
	}
	return &item, nil
}

// CancelPending cancels every still-scheduled item for the client.
// Idempotent: cancelling twice is a no-op, not an error.
func (ss *SequenceStore) CancelPending(clientID uint) error {
	return cancelPendingTx(ss.DB, clientID, "")
}

// CancelPendingType cancels only the still-scheduled items of one type,
// e.g. the no-show email when the client attended. Other items are untouched.
func (ss *SequenceStore) CancelPendingType(clientID uint, templateType string) error {
	return cancelPendingTx(ss.DB, clientID, templateType)
}

func cancelPendingTx(tx *gorm.DB, clientID uint, templateType string) error {
	q := tx.Model(&models.SequenceItem{}).
		Where("client_id = ? AND status = ?", clientID, models.SequenceStatusScheduled)
	if templateType != "" {
		q = q.Where("template_type = ?", templateType)
	}
	return q.Update("status", models.SequenceStatusCancelled).Error
}

// Reschedule replaces the client's outreach with a batch against the new
// appointment date. Cancel and create run in one transaction so a failure
// cannot strand the client with no active outreach silently; the error
// surfaces to the caller.
func (ss *SequenceStore) Reschedule(clientID uint, newAppointmentDate time.Time, offsets SequenceOffsets) ([]models.SequenceItem, error) {
	var created []models.SequenceItem
	err := ss.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = ss.createBatchTx(tx, clientID, &newAppointmentDate, offsets)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule client %d: %w", clientID, err)
	}
	return created, nil
}

// FindDue returns scheduled items whose send time has arrived, oldest first,
// capped at limit to bound a single worker pass.
func (ss *SequenceStore) FindDue(now time.Time, limit int) ([]models.SequenceItem, error) {
	var items []models.SequenceItem
	err := ss.DB.
		Where("status = ? AND scheduled_send_at <= ?", models.SequenceStatusScheduled, now).
		Order("scheduled_send_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query due sequence items: %w", err)
	}
	return items, nil
}

// MarkSending claims an item for delivery. The conditional update doubles as
// the atomic claim: if another run (or a cancellation) got there first, zero
// rows match and ErrStatusConflict comes back.
func (ss *SequenceStore) MarkSending(itemID uint) error {
	res := ss.DB.Model(&models.SequenceItem{}).
		Where("id = ? AND status = ?", itemID, models.SequenceStatusScheduled).
		Update("status", models.SequenceStatusSending)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkSent finalizes a claimed item. Only a sending item can become sent, so
// a cancellation that raced the delivery is never overwritten.
func (ss *SequenceStore) MarkSent(itemID uint, sentAt time.Time) error {
	res := ss.DB.Model(&models.SequenceItem{}).
		Where("id = ? AND status = ?", itemID, models.SequenceStatusSending).
		Updates(map[string]interface{}{
			"status":        models.SequenceStatusSent,
			"sent_at":       sentAt,
			"error_message": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkFailed records a terminal delivery failure with its error message.
// Failed items are surfaced to staff, not auto-retried.
func (ss *SequenceStore) MarkFailed(itemID uint, message string) error {
	res := ss.DB.Model(&models.SequenceItem{}).
		Where("id = ? AND status IN ?", itemID, []string{
			models.SequenceStatusScheduled,
			models.SequenceStatusSending,
		}).
		Updates(map[string]interface{}{
			"status":        models.SequenceStatusFailed,
			"error_message": message,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ClientSequences lists every item for a client in send order, for the
// client detail view.
func (ss *SequenceStore) ClientSequences(clientID uint) ([]models.SequenceItem, error) {
	var items []models.SequenceItem
	err := ss.DB.
		Where("client_id = ?", clientID).
		Order("scheduled_send_at ASC").
		Find(&items).Error
	return items, err
}

// PendingItems lists upcoming scheduled emails across all clients, for the
// dashboard.
func (ss *SequenceStore) PendingItems(limit int) ([]models.SequenceItem, error) {
	var items []models.SequenceItem
	err := ss.DB.
		Preload("Client").
		Where("status = ?", models.SequenceStatusScheduled).
		Order("scheduled_send_at ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// HasItem reports whether the client has an item of the given type in any
// state (the no-show hook only creates one when none exists at all).
func (ss *SequenceStore) HasItem(clientID uint, templateType string) (bool, error) {
	var count int64
	err := ss.DB.Model(&models.SequenceItem{}).
		Where("client_id = ? AND template_type = ?", clientID, templateType).
		Count(&count).Error
	return count > 0, err
}

// DeleteForClient permanently removes the client's sequence rows. Used only
// by client deletion, after CancelPending.
func (ss *SequenceStore) DeleteForClient(clientID uint) error {
	return ss.DB.Unscoped().
		Where("client_id = ?", clientID).
		Delete(&models.SequenceItem{}).Error
}

// AppendSentEmail writes the immutable audit record of a delivery
func (ss *SequenceStore) AppendSentEmail(item *models.SequenceItem, client *models.Client, subject, body, messageID string, sentAt time.Time) error {
	record := models.SentEmail{
		ClientID:     client.ID,
		Recipient:    client.Email,
		Subject:      subject,
		Body:         body,
		TemplateType: item.TemplateType,
		MessageID:    messageID,
		SentAt:       sentAt,
	}
	return ss.DB.Create(&record).Error
}
