package controller

import (
	"log"
	"time"

	"intakely/models"
	"intakely/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GetStats returns the intake funnel and outreach counters for the dashboard
func (dc *DashboardController) GetStats(c *fiber.Ctx) error {
	var totalClients int64
	if err := dc.DB.Model(&models.Client{}).Count(&totalClients).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count clients", err)
	}

	var clientCounts []statusCount
	if err := dc.DB.Model(&models.Client{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&clientCounts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count clients by status", err)
	}

	var sequenceCounts []statusCount
	if err := dc.DB.Model(&models.SequenceItem{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&sequenceCounts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count sequence items", err)
	}

	weekAgo := time.Now().AddDate(0, 0, -7)

	var newThisWeek int64
	if err := dc.DB.Model(&models.Client{}).
		Where("created_at >= ?", weekAgo).
		Count(&newThisWeek).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count recent clients", err)
	}

	var sentThisWeek int64
	if err := dc.DB.Model(&models.SentEmail{}).
		Where("sent_at >= ?", weekAgo).
		Count(&sentThisWeek).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count sent emails", err)
	}

	clientsByStatus := make(map[string]int64, len(clientCounts))
	for _, row := range clientCounts {
		clientsByStatus[row.Status] = row.Count
	}
	emailsByStatus := make(map[string]int64, len(sequenceCounts))
	for _, row := range sequenceCounts {
		emailsByStatus[row.Status] = row.Count
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"total_clients":     totalClients,
		"clients_by_status": clientsByStatus,
		"emails_by_status":  emailsByStatus,
		"new_this_week":     newThisWeek,
		"sent_this_week":    sentThisWeek,
	}))
}

// GetUpcoming lists the next emails due to go out, soonest first
func (dc *DashboardController) GetUpcoming(c *fiber.Ctx) error {
	var items []models.SequenceItem
	if err := dc.DB.
		Preload("Client").
		Where("status = ?", models.SequenceStatusScheduled).
		Order("scheduled_send_at ASC").
		Limit(10).
		Find(&items).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch upcoming emails", err)
	}
	return c.JSON(utils.SuccessResponse(items))
}
