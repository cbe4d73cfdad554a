package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestGoogleServiceEnabled(t *testing.T) {
	cfg := testConfig()
	assert.False(t, NewGoogleService(cfg).Enabled())

	cfg.GoogleClientID = "client"
	cfg.GoogleClientSecret = "secret"
	cfg.GoogleCallbackURL = "http://localhost:8080/api/auth/google/callback"
	g := NewGoogleService(cfg)
	assert.True(t, g.Enabled())

	url := g.AuthCodeURL("state-123")
	assert.True(t, strings.HasPrefix(url, "https://accounts.google.com/"))
	assert.Contains(t, url, "state=state-123")
	assert.Contains(t, url, "client_id=client")
}

func TestGoogleExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"g-42","email":"user@example.com","email_verified":true,"name":"User","picture":"https://example.com/u.png"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	g := &GoogleService{
		OAuth: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   server.URL + "/auth",
				TokenURL:  server.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		ClientID:    "client",
		UserInfoURL: server.URL + "/userinfo",
	}

	profile, err := g.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "g-42", profile.ID)
	assert.Equal(t, "user@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "User", profile.Name)
	assert.Equal(t, "https://example.com/u.png", profile.PictureURL)

	_, err = g.Exchange(context.Background(), "")
	assertAppError(t, err, fiber.StatusBadRequest, "")
}

func TestGoogleVerifyIDTokenRequiresToken(t *testing.T) {
	g := NewGoogleService(testConfig())

	_, err := g.VerifyIDToken("")
	assertAppError(t, err, fiber.StatusBadRequest, "")
}
