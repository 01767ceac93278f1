package controller

import (
	"log"

	"intakely/models"
	"intakely/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SettingsController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewSettingsController(db *gorm.DB, logger *log.Logger) *SettingsController {
	return &SettingsController{
		DB:     db,
		Logger: logger,
	}
}

type UpdateSettingsRequest struct {
	CenterName     *string `json:"center_name" validate:"omitempty,max=255"`
	CenterAddress  *string `json:"center_address"`
	CenterPhone    *string `json:"center_phone" validate:"omitempty,max=20"`
	StaffName      *string `json:"staff_name" validate:"omitempty,max=100"`
	StaffSignature *string `json:"staff_signature"`

	ReminderLeadHours     *int `json:"reminder_lead_hours" validate:"omitempty,min=1,max=168"`
	NoShowDelayHours      *int `json:"no_show_delay_hours" validate:"omitempty,min=1,max=168"`
	ReEngagementDelayDays *int `json:"re_engagement_delay_days" validate:"omitempty,min=1,max=90"`
}

// GetSettings returns the center settings with secrets stripped
func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	settings, err := models.GetSettings(sc.DB)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", err)
	}

	settings.Sanitize()
	return c.JSON(utils.SuccessResponse(settings))
}

// UpdateSettings applies staff edits to center details and sequence timing.
// Timing changes affect batches created afterwards; existing items keep
// their scheduled times.
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	settings, err := models.GetSettings(sc.DB)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", err)
	}

	var input UpdateSettingsRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.CenterName != nil {
		settings.CenterName = *input.CenterName
	}
	if input.CenterAddress != nil {
		settings.CenterAddress = *input.CenterAddress
	}
	if input.CenterPhone != nil {
		settings.CenterPhone = *input.CenterPhone
	}
	if input.StaffName != nil {
		settings.StaffName = *input.StaffName
	}
	if input.StaffSignature != nil {
		settings.StaffSignature = *input.StaffSignature
	}
	if input.ReminderLeadHours != nil {
		settings.ReminderLeadHours = *input.ReminderLeadHours
	}
	if input.NoShowDelayHours != nil {
		settings.NoShowDelayHours = *input.NoShowDelayHours
	}
	if input.ReEngagementDelayDays != nil {
		settings.ReEngagementDelayDays = *input.ReEngagementDelayDays
	}

	if err := sc.DB.Save(settings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update settings", err)
	}

	sc.Logger.Printf("Center settings updated")
	settings.Sanitize()
	return c.JSON(utils.SuccessResponse(settings))
}
