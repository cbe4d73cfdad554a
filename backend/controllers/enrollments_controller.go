package controllers

import (
	"log"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EnrollmentsController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Logger      *log.Logger
	Enrollments *services.EnrollmentService
}

func NewEnrollmentsController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *EnrollmentsController {
	return &EnrollmentsController{DB: db, Cfg: cfg, Logger: logger, Enrollments: services.NewEnrollmentService(db)}
}

type enrollRequest struct {
	CourseID uint `json:"courseId" example:"1"`
}

// Enroll godoc
// @Summary Enroll the current student in a course
// @Description Idempotent. 201 for a new enrollment, 200 when it already existed.
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body enrollRequest true "Course to join"
// @Success 200 {object} utils.SuccessResponse
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments [post]
func (ec *EnrollmentsController) Enroll(c *fiber.Ctx) error {
	var input enrollRequest
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ec.Logger, err)
	}

	enrollment, created, err := ec.Enrollments.Enroll(actorOf(c), input.CourseID)
	if err != nil {
		return utils.HandleError(c, ec.Logger, err)
	}
	if created {
		return utils.SuccessWithMessage(c, fiber.StatusCreated, "Enrolled successfully", enrollment)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Already enrolled", enrollment)
}

// GetStudentEnrollments godoc
// @Summary A student's enrollments with course content
// @Tags enrollments
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments/students/{id}/enrollments [get]
func (ec *EnrollmentsController) GetStudentEnrollments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, ec.Logger, err)
	}
	enrollments, err := ec.Enrollments.ListForStudent(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, ec.Logger, err)
	}
	return utils.OK(c, enrollments)
}
