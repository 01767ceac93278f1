package controller

import (
	"log"

	"intakely/models"
	"intakely/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TemplateController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTemplateController(db *gorm.DB, logger *log.Logger) *TemplateController {
	return &TemplateController{
		DB:     db,
		Logger: logger,
	}
}

type UpdateTemplateRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Subject *string `json:"subject" validate:"omitempty,max=255"`
	Body    *string `json:"body"`
}

// GetTemplates lists all templates grouped by stage
func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	var templates []models.EmailTemplate
	if err := tc.DB.Order("type ASC, is_default DESC").Find(&templates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch templates", err)
	}
	return c.JSON(utils.SuccessResponse(templates))
}

// GetTemplate returns one template
func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	var template models.EmailTemplate
	if err := tc.DB.First(&template, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}
	return c.JSON(utils.SuccessResponse(template))
}

// UpdateTemplate edits a template's name, subject or body. Templates are
// never deleted, only edited or reset.
func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	var template models.EmailTemplate
	if err := tc.DB.First(&template, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var input UpdateTemplateRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.Name != nil {
		template.Name = *input.Name
	}
	if input.Subject != nil {
		template.Subject = *input.Subject
	}
	if input.Body != nil {
		template.Body = *input.Body
	}

	if err := tc.DB.Save(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update template", err)
	}

	tc.Logger.Printf("Updated %s template %d", template.Type, template.ID)
	return c.JSON(utils.SuccessResponse(template))
}

// ResetTemplate restores a template to its built-in default content
func (tc *TemplateController) ResetTemplate(c *fiber.Ctx) error {
	var template models.EmailTemplate
	if err := tc.DB.First(&template, c.Params("id")).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}

	var builtin *models.EmailTemplate
	for i := range models.BuiltinTemplates {
		if models.BuiltinTemplates[i].Type == template.Type {
			builtin = &models.BuiltinTemplates[i]
			break
		}
	}
	if builtin == nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "No built-in template for type "+template.Type, nil)
	}

	template.Name = builtin.Name
	template.Subject = builtin.Subject
	template.Body = builtin.Body

	if err := tc.DB.Save(&template).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reset template", err)
	}

	tc.Logger.Printf("Reset %s template %d to built-in default", template.Type, template.ID)
	return c.JSON(utils.SuccessResponse(template))
}
