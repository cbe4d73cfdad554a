package controllers

import (
	"log"
	"time"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const oauthStateCookie = "oauth_state"

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger
	Auth   *services.AuthService
	Google *services.GoogleService
}

func NewAuthController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *AuthController {
	return &AuthController{
		DB:     db,
		Cfg:    cfg,
		Logger: logger,
		Auth:   services.NewAuthService(db, cfg),
		Google: services.NewGoogleService(cfg),
	}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a local account with a STUDENT or TEACHER role
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "Registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}

	result, err := ac.Auth.Register(input)
	if err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusCreated, "User registered successfully!", result)
}

// Login godoc
// @Summary User login
// @Description Authenticate with email and password and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginInput true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}

	result, err := ac.Auth.Login(input)
	if err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Login successful!", result)
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Failure 503 {object} utils.ErrorResponse
// @Router /auth/google [get]
func (ac *AuthController) GoogleLogin(c *fiber.Ctx) error {
	if !ac.Google.Enabled() {
		return utils.Error(c, fiber.StatusServiceUnavailable, fiber.NewError(fiber.StatusServiceUnavailable, "Google sign-in is not configured"))
	}

	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   ac.Cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(ac.Google.AuthCodeURL(state), fiber.StatusFound)
}

// GoogleCallback godoc
// @Summary Google OAuth callback
// @Description Signs the user in, sets the token cookie and redirects to the frontend
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 302
// @Router /auth/google/callback [get]
func (ac *AuthController) GoogleCallback(c *fiber.Ctx) error {
	failure := ac.Cfg.FrontendURL + "/login?error=auth_failed"

	state := c.Cookies(oauthStateCookie)
	c.ClearCookie(oauthStateCookie)
	if state == "" || state != c.Query("state") {
		return c.Redirect(failure, fiber.StatusFound)
	}

	profile, err := ac.Google.Exchange(c.UserContext(), c.Query("code"))
	if err != nil {
		ac.Logger.Printf("google callback: %v", err)
		return c.Redirect(failure, fiber.StatusFound)
	}
	result, err := ac.Auth.FederatedCallback(*profile)
	if err != nil {
		ac.Logger.Printf("google callback: %v", err)
		return c.Redirect(failure, fiber.StatusFound)
	}

	utils.SetTokenCookie(c, result.Token, ac.Cfg)
	return c.Redirect(ac.Cfg.FrontendURL+services.RedirectPath(result.User), fiber.StatusFound)
}

type googleTokenRequest struct {
	IDToken string `json:"idToken"`
}

// GoogleTokenLogin godoc
// @Summary Sign in with a Google ID token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body googleTokenRequest true "Google ID token"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/google [post]
func (ac *AuthController) GoogleTokenLogin(c *fiber.Ctx) error {
	var input googleTokenRequest
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}

	profile, err := ac.Google.VerifyIDToken(input.IDToken)
	if err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}
	result, err := ac.Auth.FederatedCallback(*profile)
	if err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}

	utils.SetTokenCookie(c, result.Token, ac.Cfg)
	return utils.OK(c, fiber.Map{
		"token":    result.Token,
		"user":     result.User,
		"redirect": services.RedirectPath(result.User),
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user, err := ac.Auth.Me(actorOf(c).UserID)
	if err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}
	return utils.OK(c, user)
}

// Check godoc
// @Summary Report whether the caller is signed in
// @Tags auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/check [get]
func (ac *AuthController) Check(c *fiber.Ctx) error {
	actor := actorOf(c)
	if actor.IsAnonymous() {
		return utils.OK(c, fiber.Map{"authenticated": false})
	}
	user, err := ac.Auth.Me(actor.UserID)
	if err != nil {
		if utils.IsNotFound(err) {
			return utils.OK(c, fiber.Map{"authenticated": false})
		}
		return utils.HandleError(c, ac.Logger, err)
	}
	return utils.OK(c, fiber.Map{"authenticated": true, "user": user})
}

// Logout godoc
// @Summary Clear the token cookie
// @Tags auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	utils.ClearTokenCookie(c, ac.Cfg)
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Logged out successfully", nil)
}

// CompleteProfile godoc
// @Summary Pick a role after the first Google sign-in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.ProfileChoice true "Role and bio"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/complete-profile [post]
func (ac *AuthController) CompleteProfile(c *fiber.Ctx) error {
	var input services.ProfileChoice
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}

	result, err := ac.Auth.CompleteProfile(actorOf(c).UserID, input)
	if err != nil {
		return utils.HandleError(c, ac.Logger, err)
	}

	utils.SetTokenCookie(c, result.Token, ac.Cfg)
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Profile completed", fiber.Map{
		"token":    result.Token,
		"user":     result.User,
		"redirect": services.RedirectPath(result.User),
	})
}
