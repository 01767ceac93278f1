package controller

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log"
	"time"

	"intakely/models"
	"intakely/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// GmailController runs the mailbox connect flow: staff grant the gmail.send
// scope once and the refresh token is kept encrypted on the settings row.
type GmailController struct {
	DB     *gorm.DB
	OAuth  *oauth2.Config
	Logger *log.Logger
}

func NewGmailController(db *gorm.DB, logger *log.Logger) *GmailController {
	return &GmailController{
		DB:     db,
		OAuth:  utils.NewGoogleOAuthConfig(),
		Logger: logger,
	}
}

// Connect redirects staff to the Google consent screen
func (gc *GmailController) Connect(c *fiber.Ctx) error {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate state", err)
	}
	state := base64.URLEncoding.EncodeToString(stateBytes)

	c.Cookie(&fiber.Cookie{
		Name:     "gmail_oauth_state",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
	})

	// Force the consent prompt so Google always returns a refresh token
	url := gc.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// Callback exchanges the authorization code, stores the encrypted refresh
// token and marks the mailbox connected.
func (gc *GmailController) Callback(c *fiber.Ctx) error {
	if c.Query("state") == "" || c.Query("state") != c.Cookies("gmail_oauth_state") {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid OAuth state", nil)
	}

	code := c.Query("code")
	if code == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing authorization code", nil)
	}

	token, err := gc.OAuth.Exchange(c.Context(), code)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to exchange authorization code", err)
	}
	if token.RefreshToken == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"No refresh token received. Revoke the app's access in your Google account and try again.", nil)
	}

	email, err := gc.fetchAccountEmail(c, token)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Failed to fetch Google account info", err)
	}

	encrypted, err := utils.Encrypt(token.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store refresh token", err)
	}

	settings, err := models.GetSettings(gc.DB)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", err)
	}

	settings.GmailConnected = true
	settings.GmailEmail = email
	settings.GmailRefreshToken = encrypted
	if err := gc.DB.Save(settings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save Gmail connection", err)
	}

	gc.Logger.Printf("Gmail connected as %s", email)
	return c.JSON(utils.SuccessResponse(fiber.Map{
		"connected": true,
		"email":     email,
	}))
}

func (gc *GmailController) fetchAccountEmail(c *fiber.Ctx, token *oauth2.Token) (string, error) {
	client := gc.OAuth.Client(c.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	return info.Email, nil
}

// Disconnect drops the stored token. Scheduled items are left alone; the
// worker skips runs until a mailbox is connected again.
func (gc *GmailController) Disconnect(c *fiber.Ctx) error {
	settings, err := models.GetSettings(gc.DB)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", err)
	}

	settings.GmailConnected = false
	settings.GmailEmail = ""
	settings.GmailRefreshToken = ""
	if err := gc.DB.Save(settings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to disconnect Gmail", err)
	}

	gc.Logger.Printf("Gmail disconnected")
	return c.JSON(utils.SuccessResponse(fiber.Map{"connected": false}))
}

// Status reports whether a mailbox is connected and as which address
func (gc *GmailController) Status(c *fiber.Ctx) error {
	settings, err := models.GetSettings(gc.DB)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"connected": settings.GmailConnected,
		"email":     settings.GmailEmail,
	}))
}
