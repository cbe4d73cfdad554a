package controllers

import (
	"log"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ChaptersController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Logger  *log.Logger
	Courses *services.CourseService
}

func NewChaptersController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *ChaptersController {
	return &ChaptersController{DB: db, Cfg: cfg, Logger: logger, Courses: services.NewCourseService(db)}
}

// GetChapters godoc
// @Summary List chapters
// @Tags chapters
// @Produce json
// @Param courseId query int false "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /chapters [get]
func (ch *ChaptersController) GetChapters(c *fiber.Ctx) error {
	courseID, err := queryUint(c, "courseId")
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	chapters, err := ch.Courses.ListChapters(actorOf(c), courseID)
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	return utils.OK(c, chapters)
}

// GetChapter godoc
// @Summary Chapter with its sections
// @Tags chapters
// @Produce json
// @Param id path int true "Chapter ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /chapters/{id} [get]
func (ch *ChaptersController) GetChapter(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	chapter, err := ch.Courses.GetChapter(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	return utils.OK(c, chapter)
}

type createChapterRequest struct {
	CourseID uint `json:"courseId"`
	services.ChapterInput
}

// CreateChapter godoc
// @Summary Add a chapter
// @Tags chapters
// @Accept json
// @Produce json
// @Param chapter body createChapterRequest true "Chapter"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chapters [post]
func (ch *ChaptersController) CreateChapter(c *fiber.Ctx) error {
	var input createChapterRequest
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	if input.CourseID == 0 {
		return utils.HandleError(c, ch.Logger, utils.NewValidationError("Valid course ID is required",
			map[string]string{"courseId": "Valid course ID is required"}))
	}

	chapter, err := ch.Courses.AddChapterToCourse(actorOf(c), input.CourseID, input.ChapterInput)
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	return utils.Created(c, chapter)
}

// UpdateChapter godoc
// @Summary Rename or reorder a chapter
// @Tags chapters
// @Accept json
// @Produce json
// @Param id path int true "Chapter ID"
// @Param chapter body services.ChapterUpdate true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chapters/{id} [put]
func (ch *ChaptersController) UpdateChapter(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	var input services.ChapterUpdate
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}

	chapter, err := ch.Courses.UpdateChapter(actorOf(c), id, input)
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	return utils.OK(c, chapter)
}

// DeleteChapter godoc
// @Summary Delete a chapter and its sections
// @Tags chapters
// @Param id path int true "Chapter ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /chapters/{id} [delete]
func (ch *ChaptersController) DeleteChapter(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	if err := ch.Courses.DeleteChapter(actorOf(c), id); err != nil {
		return utils.HandleError(c, ch.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Chapter deleted successfully", nil)
}
