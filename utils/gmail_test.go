package utils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"intakely/config"
	"intakely/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestBuildRawMessage(t *testing.T) {
	settings := &models.CenterSettings{
		CenterName: "Hope Recovery Center",
		GmailEmail: "outreach@hoperecovery.org",
	}
	email := Email{
		To:      "maria@example.com",
		Subject: "Welcome, Maria!",
		Body:    "Hi Maria,\n\nWelcome aboard.",
	}

	raw, err := buildRawMessage(settings, email)
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	require.NoError(t, err)

	msg := string(decoded)
	assert.Contains(t, msg, "To: maria@example.com")
	assert.Contains(t, msg, "Subject: Welcome, Maria!")
	assert.Contains(t, msg, "outreach@hoperecovery.org")
}

func TestGmailMailerNotConnected(t *testing.T) {
	db := newTestDB(t)
	mailer := &GmailMailer{
		DB:     db,
		OAuth:  &oauth2.Config{},
		Logger: log.New(os.Stdout, "TEST: ", log.LstdFlags),
	}

	_, err := mailer.Send(context.Background(), Email{To: "maria@example.com"})
	assert.ErrorIs(t, err, ErrGmailNotConnected)
}

func TestGmailMailerSend(t *testing.T) {
	config.AppConfig.EncryptionKey = "0123456789abcdef0123456789abcdef"

	db := newTestDB(t)

	encrypted, err := Encrypt("refresh-token-1")
	require.NoError(t, err)

	settings, err := models.GetSettings(db)
	require.NoError(t, err)
	settings.CenterName = "Hope Recovery Center"
	settings.GmailConnected = true
	settings.GmailEmail = "outreach@hoperecovery.org"
	settings.GmailRefreshToken = encrypted
	require.NoError(t, db.Save(settings).Error)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	var gotAuth string
	var gotRaw string
	sendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			gotRaw = payload.Raw
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "gmail-msg-1"})
	}))
	defer sendServer.Close()

	mailer := &GmailMailer{
		DB: db,
		OAuth: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL},
		},
		Logger:  log.New(os.Stdout, "TEST: ", log.LstdFlags),
		SendURL: sendServer.URL,
	}

	id, err := mailer.Send(context.Background(), Email{
		To:      "maria@example.com",
		Subject: "Welcome",
		Body:    "Hi Maria",
	})
	require.NoError(t, err)
	assert.Equal(t, "gmail-msg-1", id)
	assert.Equal(t, "Bearer access-1", gotAuth)

	decoded, err := base64.RawURLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: maria@example.com")
}

func TestGmailMailerSurfacesAPIErrors(t *testing.T) {
	config.AppConfig.EncryptionKey = "0123456789abcdef0123456789abcdef"

	db := newTestDB(t)

	encrypted, err := Encrypt("refresh-token-1")
	require.NoError(t, err)

	settings, err := models.GetSettings(db)
	require.NoError(t, err)
	settings.GmailConnected = true
	settings.GmailEmail = "outreach@hoperecovery.org"
	settings.GmailRefreshToken = encrypted
	require.NoError(t, db.Save(settings).Error)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	sendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	}))
	defer sendServer.Close()

	mailer := &GmailMailer{
		DB: db,
		OAuth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{TokenURL: tokenServer.URL},
		},
		Logger:  log.New(os.Stdout, "TEST: ", log.LstdFlags),
		SendURL: sendServer.URL,
	}

	_, err = mailer.Send(context.Background(), Email{To: "maria@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
