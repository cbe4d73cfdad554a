package controllers

import (
	"log"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TeacherController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *log.Logger
	Teachers *services.TeacherService
	Uploads  *services.UploadService
}

func NewTeacherController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *TeacherController {
	return &TeacherController{
		DB:       db,
		Cfg:      cfg,
		Logger:   logger,
		Teachers: services.NewTeacherService(db),
		Uploads:  services.NewUploadService(cfg.UploadDir),
	}
}

// GetTeacher godoc
// @Summary Public teacher profile
// @Description Unapproved courses are listed only for the teacher and admins.
// @Tags teacher
// @Produce json
// @Param id path int true "Teacher ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /teacher/{id} [get]
func (tc *TeacherController) GetTeacher(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, tc.Logger, err)
	}
	profile, err := tc.Teachers.GetTeacherProfile(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, tc.Logger, err)
	}
	return utils.OK(c, profile)
}

// UpdateTeacher godoc
// @Summary Update a teacher profile
// @Tags teacher
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Teacher ID"
// @Param profile body services.TeacherProfileUpdate true "Name and bio"
// @Param profileImage formData file false "Profile image"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /teacher/{id} [put]
func (tc *TeacherController) UpdateTeacher(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, tc.Logger, err)
	}

	var (
		input services.TeacherProfileUpdate
		saved string
	)
	if isMultipart(c) {
		input.Name = formString(c, "name")
		input.Bio = formString(c, "bio")
		if fh := formFile(c, "profileImage"); fh != nil {
			if !actorOf(c).CanManage(id) {
				return utils.Forbidden(c, "You can only update your own profile")
			}
			url, err := tc.Uploads.SaveProfileImage(fh)
			if err != nil {
				return utils.HandleError(c, tc.Logger, err)
			}
			saved = url
			input.ProfileImageURL = &url
		}
	} else if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, tc.Logger, err)
	}

	profile, err := tc.Teachers.UpdateTeacherProfile(actorOf(c), id, input)
	if err != nil {
		if saved != "" {
			if rmErr := tc.Uploads.Remove(saved); rmErr != nil {
				tc.Logger.Printf("discard upload %s: %v", saved, rmErr)
			}
		}
		return utils.HandleError(c, tc.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Profile updated successfully", profile)
}
