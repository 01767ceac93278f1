package utils

import (
	"errors"
	"fmt"
	"log"
	"time"

	"intakely/models"

	"github.com/badoux/checkmail"
	"gorm.io/gorm"
)

// ErrNoAppointment is returned when a hook that needs an appointment date is
// invoked without one.
var ErrNoAppointment = errors.New("client has no appointment date")

// SequenceLifecycle reacts to client lifecycle events raised by the CRUD
// layer and keeps the outreach schedule consistent with them. Hooks are
// plain synchronous methods; errors return to the caller instead of being
// swallowed.
type SequenceLifecycle struct {
	DB     *gorm.DB
	Store  *SequenceStore
	Logger *log.Logger

	// Now is the anchor for "schedule from now" paths; tests pin it
	Now func() time.Time
}

func NewSequenceLifecycle(db *gorm.DB, store *SequenceStore, logger *log.Logger) *SequenceLifecycle {
	return &SequenceLifecycle{
		DB:     db,
		Store:  store,
		Logger: logger,
		Now:    time.Now,
	}
}

func (sl *SequenceLifecycle) offsets() SequenceOffsets {
	settings, err := models.GetSettings(sl.DB)
	if err != nil {
		// Missing settings row should not block scheduling; fall back to defaults
		sl.Logger.Printf("Failed to load center settings, using default offsets: %v", err)
		return SequenceOffsets{}
	}
	return OffsetsFromSettings(settings)
}

// OnClientCreated schedules the outreach sequence for a new client: the
// welcome email always, the appointment-anchored emails when an appointment
// date was provided at intake.
func (sl *SequenceLifecycle) OnClientCreated(client *models.Client) ([]models.SequenceItem, error) {
	if err := checkmail.ValidateFormat(client.Email); err != nil {
		return nil, fmt.Errorf("invalid client email %q: %w", client.Email, err)
	}

	items, err := sl.Store.CreateBatch(client.ID, client.AppointmentDate, sl.offsets())
	if err != nil {
		return nil, err
	}

	sl.Logger.Printf("Scheduled %d outreach emails for client %d (%s)", len(items), client.ID, client.Email)
	return items, nil
}

// OnAppointmentChanged supersedes the client's entire pending schedule with
// one computed from the new date. The old appointment's items become
// cancelled; already-sent items are history and stay untouched.
func (sl *SequenceLifecycle) OnAppointmentChanged(client *models.Client, newDate time.Time) ([]models.SequenceItem, error) {
	items, err := sl.Store.Reschedule(client.ID, newDate, sl.offsets())
	if err != nil {
		return nil, err
	}

	sl.Logger.Printf("Rescheduled client %d to %s, %d emails pending", client.ID, newDate.Format(time.RFC3339), len(items))
	return items, nil
}

// OnAppointmentCleared cancels the appointment-anchored items when staff
// unset the appointment date. The welcome email is not tied to the
// appointment and keeps its slot.
func (sl *SequenceLifecycle) OnAppointmentCleared(client *models.Client) error {
	for _, ttype := range []string{
		models.TemplateTypeReminder,
		models.TemplateTypeNoShow,
		models.TemplateTypeReEngagement,
	} {
		if err := sl.Store.CancelPendingType(client.ID, ttype); err != nil {
			return fmt.Errorf("failed to cancel %s email for client %d: %w", ttype, client.ID, err)
		}
	}
	sl.Logger.Printf("Appointment cleared for client %d, cancelled appointment-anchored emails", client.ID)
	return nil
}

// OnClientDeleted cancels whatever is still pending and then removes the
// client's sequence rows entirely.
func (sl *SequenceLifecycle) OnClientDeleted(clientID uint) error {
	if err := sl.Store.CancelPending(clientID); err != nil {
		return fmt.Errorf("failed to cancel pending emails for client %d: %w", clientID, err)
	}
	if err := sl.Store.DeleteForClient(clientID); err != nil {
		return fmt.Errorf("failed to remove sequence rows for client %d: %w", clientID, err)
	}
	sl.Logger.Printf("Removed outreach schedule for deleted client %d", clientID)
	return nil
}

// OnStatusChanged handles status-driven side effects:
//   - completed: the client attended, so only the pending no-show email is
//     cancelled; the other items may already have fired or been cancelled
//     on their own and are left alone.
//   - no_show: makes sure a no-show email exists. When none was ever
//     scheduled (e.g. the appointment date was missing at intake), one is
//     created offset from now rather than from the original appointment.
func (sl *SequenceLifecycle) OnStatusChanged(client *models.Client, oldStatus, newStatus string) error {
	if oldStatus == newStatus {
		return nil
	}

	switch newStatus {
	case models.ClientStatusCompleted:
		if err := sl.Store.CancelPendingType(client.ID, models.TemplateTypeNoShow); err != nil {
			return fmt.Errorf("failed to cancel no-show email for client %d: %w", client.ID, err)
		}
		sl.Logger.Printf("Client %d attended, cancelled pending no-show email", client.ID)

	case models.ClientStatusNoShow:
		exists, err := sl.Store.HasItem(client.ID, models.TemplateTypeNoShow)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		offsets := sl.offsets().withDefaults()
		sendAt := sl.Now().Add(offsets.NoShowDelay)
		if _, err := sl.Store.CreateSingle(client.ID, models.TemplateTypeNoShow, sendAt); err != nil {
			return err
		}
		sl.Logger.Printf("Client %d marked no-show, scheduled follow-up for %s", client.ID, sendAt.Format(time.RFC3339))
	}

	return nil
}
