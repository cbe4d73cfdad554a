package controllers

import (
	"log"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubjectsController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *log.Logger
	Subjects *services.SubjectService
}

func NewSubjectsController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *SubjectsController {
	return &SubjectsController{DB: db, Cfg: cfg, Logger: logger, Subjects: services.NewSubjectService(db)}
}

type createSubjectRequest struct {
	Name string `json:"name" example:"Mathematics"`
}

// GetSubjects godoc
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /subjects [get]
func (sc *SubjectsController) GetSubjects(c *fiber.Ctx) error {
	subjects, err := sc.Subjects.List()
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.OK(c, subjects)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags subjects
// @Accept json
// @Produce json
// @Param subject body createSubjectRequest true "Subject"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /subjects [post]
func (sc *SubjectsController) CreateSubject(c *fiber.Ctx) error {
	var input createSubjectRequest
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	subject, err := sc.Subjects.Create(input.Name)
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.Created(c, subject)
}
