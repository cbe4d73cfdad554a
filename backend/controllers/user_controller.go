package controllers

import (
	"log"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *log.Logger
	Users  *services.UserService
}

func NewUserController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Logger: logger, Users: services.NewUserService(db)}
}

// GetUser godoc
// @Summary Get user account
// @Description Returns the account without credentials. Self or admin.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, uc.Logger, err)
	}
	user, err := uc.Users.GetUser(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, uc.Logger, err)
	}
	return utils.OK(c, user)
}

// UpdateUser godoc
// @Summary Update user account
// @Description Changes name, email or bio. Email must be valid and unused.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body services.UserUpdate true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, uc.Logger, err)
	}
	var input services.UserUpdate
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, uc.Logger, err)
	}

	user, err := uc.Users.UpdateUser(actorOf(c), id, input)
	if err != nil {
		return utils.HandleError(c, uc.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Profile updated successfully", user)
}
