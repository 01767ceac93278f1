package controller

import (
	"log"
	"strconv"
	"strings"
	"time"

	"intakely/models"
	"intakely/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClientController struct {
	DB        *gorm.DB
	Lifecycle *utils.SequenceLifecycle
	Logger    *log.Logger
}

func NewClientController(db *gorm.DB, lifecycle *utils.SequenceLifecycle, logger *log.Logger) *ClientController {
	return &ClientController{
		DB:        db,
		Lifecycle: lifecycle,
		Logger:    logger,
	}
}

type CreateClientRequest struct {
	FirstName       string     `json:"first_name" validate:"required,max=100"`
	LastName        string     `json:"last_name" validate:"required,max=100"`
	Email           string     `json:"email" validate:"required,email"`
	Phone           string     `json:"phone" validate:"omitempty,max=20"`
	AppointmentDate *time.Time `json:"appointment_date"`
	Notes           string     `json:"notes"`
}

type UpdateClientRequest struct {
	FirstName       *string    `json:"first_name" validate:"omitempty,max=100"`
	LastName        *string    `json:"last_name" validate:"omitempty,max=100"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	Phone           *string    `json:"phone" validate:"omitempty,max=20"`
	AppointmentDate *time.Time `json:"appointment_date"`
	// A nil appointment_date means unchanged, so unsetting takes an
	// explicit flag
	ClearAppointment bool    `json:"clear_appointment"`
	Status           *string `json:"status" validate:"omitempty,oneof=intake confirmed reminded no_show rescheduled completed"`
	Notes            *string `json:"notes"`
}

// CreateClient handles the public intake form. Creating the client also
// schedules their outreach sequence.
func (cc *ClientController) CreateClient(c *fiber.Ctx) error {
	var input CreateClientRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	client := models.Client{
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:           input.Phone,
		IntakeDate:      time.Now(),
		AppointmentDate: input.AppointmentDate,
		Status:          models.ClientStatusIntake,
		Notes:           input.Notes,
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create client", err)
	}

	// Scheduling failure must not block intake; staff see the gap in the
	// client's sequence view and can re-trigger.
	scheduled := true
	if _, err := cc.Lifecycle.OnClientCreated(&client); err != nil {
		scheduled = false
		sentry.CaptureException(err)
		cc.Logger.Printf("Failed to schedule outreach for client %d: %v", client.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":            true,
		"data":               client,
		"sequence_scheduled": scheduled,
	})
}

// GetClients returns a paginated client list with optional status filter and
// name/email search.
func (cc *ClientController) GetClients(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit > 100 {
		limit = 100
	}

	query := cc.DB.Model(&models.Client{})

	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown client status", nil)
		}
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count clients", err)
	}

	var clients []models.Client
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&clients).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch clients", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  clients,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetClient returns one client with their outreach schedule
func (cc *ClientController) GetClient(c *fiber.Ctx) error {
	var client models.Client
	if err := cc.DB.
		Preload("SequenceItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_send_at ASC")
		}).
		First(&client, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	return c.JSON(utils.SuccessResponse(client))
}

// UpdateClient applies staff edits. Appointment and status changes fan out
// to the lifecycle hooks so the outreach schedule follows the client.
func (cc *ClientController) UpdateClient(c *fiber.Ctx) error {
	var client models.Client
	if err := cc.DB.First(&client, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	var input UpdateClientRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	oldStatus := client.Status
	appointmentCleared := input.ClearAppointment && client.AppointmentDate != nil
	appointmentChanged := !input.ClearAppointment && input.AppointmentDate != nil &&
		(client.AppointmentDate == nil || !client.AppointmentDate.Equal(*input.AppointmentDate))

	if input.FirstName != nil {
		client.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		client.LastName = *input.LastName
	}
	if input.Email != nil {
		client.Email = strings.ToLower(*input.Email)
	}
	if input.Phone != nil {
		client.Phone = *input.Phone
	}
	if input.ClearAppointment {
		client.AppointmentDate = nil
	} else if input.AppointmentDate != nil {
		client.AppointmentDate = input.AppointmentDate
	}
	if input.Status != nil {
		client.Status = *input.Status
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}

	if err := cc.DB.Save(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update client", err)
	}

	if appointmentCleared {
		if err := cc.Lifecycle.OnAppointmentCleared(&client); err != nil {
			sentry.CaptureException(err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Client saved but cancelling outreach failed", err)
		}
	} else if appointmentChanged {
		if _, err := cc.Lifecycle.OnAppointmentChanged(&client, *input.AppointmentDate); err != nil {
			sentry.CaptureException(err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Client saved but rescheduling outreach failed", err)
		}
	}

	if input.Status != nil && *input.Status != oldStatus {
		if err := cc.Lifecycle.OnStatusChanged(&client, oldStatus, client.Status); err != nil {
			sentry.CaptureException(err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Client saved but updating outreach failed", err)
		}
	}

	return c.JSON(utils.SuccessResponse(client))
}

// DeleteClient removes the client and their entire outreach schedule
func (cc *ClientController) DeleteClient(c *fiber.Ctx) error {
	var client models.Client
	if err := cc.DB.First(&client, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
	}

	if err := cc.Lifecycle.OnClientDeleted(client.ID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel scheduled outreach", err)
	}

	if err := cc.DB.Unscoped().Delete(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete client", err)
	}

	cc.Logger.Printf("Deleted client %d (%s)", client.ID, client.Email)
	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": client.ID}))
}
