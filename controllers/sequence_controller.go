package controller

import (
	"log"
	"strconv"

	"intakely/models"
	"intakely/utils"
	"intakely/worker"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SequenceController struct {
	DB     *gorm.DB
	Store  *utils.SequenceStore
	Worker *worker.SequenceWorker
	Logger *log.Logger
}

func NewSequenceController(db *gorm.DB, store *utils.SequenceStore, w *worker.SequenceWorker, logger *log.Logger) *SequenceController {
	return &SequenceController{
		DB:     db,
		Store:  store,
		Worker: w,
		Logger: logger,
	}
}

// GetPending lists upcoming scheduled emails across all clients
func (sc *SequenceController) GetPending(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit > 200 {
		limit = 200
	}

	items, err := sc.Store.PendingItems(limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch pending emails", err)
	}
	return c.JSON(utils.SuccessResponse(items))
}

// GetClientHistory returns the full schedule plus the audit trail of what
// actually went out for one client.
func (sc *SequenceController) GetClientHistory(c *fiber.Ctx) error {
	clientID := utils.ParseUint(c.Params("id"))
	if clientID == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client id", nil)
	}

	items, err := sc.Store.ClientSequences(clientID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sequence items", err)
	}

	var sent []models.SentEmail
	if err := sc.DB.
		Where("client_id = ?", clientID).
		Order("sent_at DESC").
		Find(&sent).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch sent emails", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"items":       items,
		"sent_emails": sent,
	}))
}

// RunNow triggers one processing pass outside the timer, for operational and
// testing use. Equivalent to what the ticker invokes.
func (sc *SequenceController) RunNow(c *fiber.Ctx) error {
	summary, err := sc.Worker.RunOnce(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Sequence run failed", err)
	}

	sc.Logger.Printf("Manual sequence run: %d processed, %d sent, %d failed", summary.Processed, summary.Sent, summary.Failed)
	return c.JSON(utils.SuccessResponse(summary))
}
