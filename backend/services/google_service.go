package services

import (
	"context"
	"io"
	"net/http"

	"tunilearn/backend/config"
	"tunilearn/backend/utils"

	"github.com/bytedance/sonic"
	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// GoogleService drives the OAuth redirect flow and ID-token sign-in.
type GoogleService struct {
	OAuth       *oauth2.Config
	ClientID    string
	UserInfoURL string
}

func NewGoogleService(cfg *config.Config) *GoogleService {
	return &GoogleService{
		OAuth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     googleEndpoint,
		},
		ClientID:    cfg.GoogleClientID,
		UserInfoURL: googleUserInfoURL,
	}
}

func (g *GoogleService) Enabled() bool {
	return g.OAuth.ClientID != "" && g.OAuth.ClientSecret != ""
}

func (g *GoogleService) AuthCodeURL(state string) string {
	return g.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades an authorization code for the user's Google profile.
func (g *GoogleService) Exchange(ctx context.Context, code string) (*ExternalProfile, error) {
	if code == "" {
		return nil, utils.NewBadRequest("Missing authorization code")
	}
	token, err := g.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange code")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build userinfo request")
	}
	resp, err := g.OAuth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch userinfo")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read userinfo")
	}

	var info googleUserInfo
	if err := sonic.Unmarshal(body, &info); err != nil {
		return nil, errors.Wrap(err, "decode userinfo")
	}
	return &ExternalProfile{
		ID:            info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		PictureURL:    info.Picture,
	}, nil
}

// VerifyIDToken checks a Google ID token against the configured client id.
func (g *GoogleService) VerifyIDToken(idToken string) (*ExternalProfile, error) {
	if idToken == "" {
		return nil, utils.NewBadRequest("idToken is required")
	}
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{g.ClientID}); err != nil {
		return nil, utils.NewUnauthorized("Invalid Google ID token")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, errors.Wrap(err, "decode id token")
	}
	return &ExternalProfile{
		ID:            claimSet.Sub,
		Email:         claimSet.Email,
		EmailVerified: claimSet.EmailVerified,
		Name:          claimSet.Name,
		PictureURL:    claimSet.Picture,
	}, nil
}
