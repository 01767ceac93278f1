package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intakely/models"
	"intakely/utils"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SequenceWorker is the scheduled processor: every interval it claims due
// sequence items, renders them and hands them to the mailer. Items are
// processed independently so one failure never aborts the batch, and the
// whole run is skipped while Gmail is disconnected.
type SequenceWorker struct {
	DB     *gorm.DB
	Store  *utils.SequenceStore
	Mailer utils.Mailer
	Logger *logrus.Logger

	Interval  time.Duration
	BatchSize int

	// Now is the processing clock; tests pin it
	Now func() time.Time
}

// RunSummary reports what a single pass did
type RunSummary struct {
	Processed int  `json:"processed"`
	Sent      int  `json:"sent"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped"`
}

func NewSequenceWorker(db *gorm.DB, store *utils.SequenceStore, mailer utils.Mailer, logger *logrus.Logger, interval time.Duration, batchSize int) *SequenceWorker {
	return &SequenceWorker{
		DB:        db,
		Store:     store,
		Mailer:    mailer,
		Logger:    logger,
		Interval:  interval,
		BatchSize: batchSize,
		Now:       time.Now,
	}
}

// Start runs the worker loop until ctx is cancelled. Runs never overlap:
// the loop is single-threaded and each pass finishes before the next tick is
// considered.
func (sw *SequenceWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	sw.Logger.Info("Sequence worker started")

	ticker := time.NewTicker(sw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Info("Sequence worker shutting down...")
			return
		case <-ticker.C:
			if _, err := sw.RunOnce(ctx); err != nil {
				sw.Logger.WithError(err).Error("Sequence run failed")
			}
		}
	}
}

// RunOnce executes one processing pass. It is what the ticker invokes and
// what the manual trigger endpoint calls.
func (sw *SequenceWorker) RunOnce(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	settings, err := models.GetSettings(sw.DB)
	if err != nil {
		return summary, fmt.Errorf("failed to load center settings: %w", err)
	}

	// A disconnected mailbox must not lose or corrupt the schedule: leave
	// everything scheduled and try again on a later pass.
	if !settings.GmailConnected {
		summary.Skipped = true
		sw.Logger.Warn("Gmail not connected, skipping sequence run")
		return summary, nil
	}

	items, err := sw.Store.FindDue(sw.Now(), sw.BatchSize)
	if err != nil {
		return summary, err
	}

	for i := range items {
		item := &items[i]
		summary.Processed++

		delivered, err := sw.processItem(ctx, item, settings)
		switch {
		case err != nil:
			summary.Failed++
			sw.Logger.WithFields(logrus.Fields{
				"item_id":       item.ID,
				"client_id":     item.ClientID,
				"template_type": item.TemplateType,
			}).WithError(err).Error("Failed to send sequence email")
		case delivered:
			summary.Sent++
		}
	}

	sw.Logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"sent":      summary.Sent,
		"failed":    summary.Failed,
	}).Info("Sequence run complete")

	return summary, nil
}

// processItem delivers one due item. It reports whether an email actually
// went out: losing the claim is neither a delivery nor a failure, so the run
// summary must not count it as sent. Every failure path marks the item failed
// with a descriptive message; failed is terminal and re-sending takes an
// explicit staff action.
func (sw *SequenceWorker) processItem(ctx context.Context, item *models.SequenceItem, settings *models.CenterSettings) (bool, error) {
	// Atomic claim: losing it means another run or a cancellation got here
	// first, which is not a failure.
	if err := sw.Store.MarkSending(item.ID); err != nil {
		if errors.Is(err, utils.ErrStatusConflict) {
			sw.Logger.WithField("item_id", item.ID).Debug("Item already claimed or cancelled, skipping")
			return false, nil
		}
		return false, err
	}

	var client models.Client
	if err := sw.DB.First(&client, item.ClientID).Error; err != nil {
		return false, sw.fail(item, fmt.Sprintf("client %d not found: %v", item.ClientID, err))
	}

	var template models.EmailTemplate
	if err := sw.DB.Where("type = ? AND is_default = ?", item.TemplateType, true).
		First(&template).Error; err != nil {
		return false, sw.fail(item, fmt.Sprintf("no default %s template: %v", item.TemplateType, err))
	}

	data := utils.BuildTemplateData(&client, settings)
	email := utils.Email{
		To:      client.Email,
		Subject: utils.RenderTemplate(template.Subject, data),
		Body:    utils.RenderTemplate(template.Body, data),
	}

	messageID, err := sw.Mailer.Send(ctx, email)
	if err != nil {
		sentry.CaptureException(err)
		return false, sw.fail(item, err.Error())
	}

	sentAt := sw.Now()
	if err := sw.Store.MarkSent(item.ID, sentAt); err != nil {
		// The send went out but the item changed state underneath us (e.g. a
		// racing cancellation). The external side effect cannot be rolled
		// back; record the delivery and move on.
		sw.Logger.WithField("item_id", item.ID).WithError(err).Warn("Delivered email could not be marked sent")
	}

	if err := sw.Store.AppendSentEmail(item, &client, email.Subject, email.Body, messageID, sentAt); err != nil {
		sw.Logger.WithField("item_id", item.ID).WithError(err).Warn("Failed to append sent email record")
	}

	return true, nil
}

// fail transitions the item to failed and returns the reason as an error so
// the run summary counts it.
func (sw *SequenceWorker) fail(item *models.SequenceItem, message string) error {
	if err := sw.Store.MarkFailed(item.ID, message); err != nil && !errors.Is(err, utils.ErrStatusConflict) {
		sw.Logger.WithField("item_id", item.ID).WithError(err).Error("Failed to mark item failed")
	}
	return errors.New(message)
}
