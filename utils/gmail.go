package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"intakely/config"
	"intakely/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

const gmailSendURL = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// GmailScopes are the OAuth scopes the center grants during setup
var GmailScopes = []string{
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/userinfo.email",
}

// ErrGmailNotConnected is returned when delivery is attempted before the
// center's mailbox has been connected.
var ErrGmailNotConnected = errors.New("gmail is not connected")

// Email is one rendered message ready for delivery
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a rendered email through the center's connected mailbox
// and returns the provider's message id. The worker only knows this
// interface; tests substitute a fake.
type Mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}

// NewGoogleOAuthConfig builds the OAuth config shared by the connect flow
// and the mailer's token refresh.
func NewGoogleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.AppConfig.Google.ClientID,
		ClientSecret: config.AppConfig.Google.ClientSecret,
		RedirectURL:  config.AppConfig.Google.RedirectURI,
		Scopes:       GmailScopes,
		Endpoint:     google.Endpoint,
	}
}

// GmailMailer sends through the Gmail API using the refresh token stored
// (encrypted) on the settings row. Token refresh is handled by the oauth2
// token source; a refresh failure surfaces as a delivery error.
type GmailMailer struct {
	DB     *gorm.DB
	OAuth  *oauth2.Config
	Logger *log.Logger

	// SendURL is overridable in tests
	SendURL string
}

func NewGmailMailer(db *gorm.DB, logger *log.Logger) *GmailMailer {
	return &GmailMailer{
		DB:      db,
		OAuth:   NewGoogleOAuthConfig(),
		Logger:  logger,
		SendURL: gmailSendURL,
	}
}

func (gm *GmailMailer) Send(ctx context.Context, email Email) (string, error) {
	settings, err := models.GetSettings(gm.DB)
	if err != nil {
		return "", fmt.Errorf("failed to load center settings: %w", err)
	}
	if !settings.GmailConnected || settings.GmailRefreshToken == "" {
		return "", ErrGmailNotConnected
	}

	refreshToken, err := Decrypt(settings.GmailRefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt gmail refresh token: %w", err)
	}

	ts := gm.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	httpClient := oauth2.NewClient(ctx, ts)

	raw, err := buildRawMessage(settings, email)
	if err != nil {
		return "", fmt.Errorf("failed to build message: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gm.SendURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gmail send request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gmail API returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse gmail response: %w", err)
	}

	gm.Logger.Printf("Sent email to %s (message %s)", email.To, result.ID)
	return result.ID, nil
}

// buildRawMessage assembles the RFC 2822 message and encodes it the way the
// Gmail API expects: base64url without padding.
func buildRawMessage(settings *models.CenterSettings, email Email) (string, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(settings.GmailEmail, settings.CenterName))
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Body)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}
