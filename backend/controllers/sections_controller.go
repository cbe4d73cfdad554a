package controllers

import (
	"log"
	"path"
	"strconv"
	"strings"

	"tunilearn/backend/config"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const msgChapterID = "Valid chapter ID is required"

type SectionsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Logger  *log.Logger
	Courses *services.CourseService
	Uploads *services.UploadService
}

func NewSectionsController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *SectionsController {
	return &SectionsController{
		DB:      db,
		Cfg:     cfg,
		Logger:  logger,
		Courses: services.NewCourseService(db),
		Uploads: services.NewUploadService(cfg.UploadDir),
	}
}

// GetSections godoc
// @Summary List sections
// @Tags sections
// @Produce json
// @Param chapterId query int false "Chapter ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /sections [get]
func (sc *SectionsController) GetSections(c *fiber.Ctx) error {
	chapterID, err := queryUint(c, "chapterId")
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	sections, err := sc.Courses.ListSections(actorOf(c), chapterID)
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.OK(c, sections)
}

// GetSection godoc
// @Summary Get a section
// @Tags sections
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /sections/{id} [get]
func (sc *SectionsController) GetSection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	section, err := sc.Courses.GetSection(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.OK(c, section)
}

type createSectionRequest struct {
	ChapterID uint `json:"chapterId"`
	services.SectionInput
}

// CreateSection godoc
// @Summary Add a section to a chapter
// @Description Exactly one of videoUrl (YouTube) or a PDF is required. A multipart pdf file becomes pdfUrl.
// @Tags sections
// @Accept json,mpfd
// @Produce json
// @Param chapterId path int false "Chapter ID (nested route)"
// @Param section body createSectionRequest true "Section"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sections [post]
// @Router /chapters/{chapterId}/sections [post]
func (sc *SectionsController) CreateSection(c *fiber.Ctx) error {
	var (
		input createSectionRequest
		saved string
		err   error
	)
	if isMultipart(c) {
		input, saved, err = sc.sectionInputFromForm(c)
	} else {
		err = parseBody(c, &input)
	}
	if err != nil {
		sc.discard(saved)
		return utils.HandleError(c, sc.Logger, err)
	}

	if c.Params("chapterId") != "" {
		id, err := paramID(c, "chapterId")
		if err != nil {
			sc.discard(saved)
			return utils.HandleError(c, sc.Logger, err)
		}
		input.ChapterID = id
	}
	if input.ChapterID == 0 {
		sc.discard(saved)
		return utils.HandleError(c, sc.Logger, utils.NewValidationError(msgChapterID, map[string]string{"chapterId": msgChapterID}))
	}

	section, err := sc.Courses.AddSectionToChapter(actorOf(c), input.ChapterID, input.SectionInput)
	if err != nil {
		sc.discard(saved)
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.Created(c, section)
}

func (sc *SectionsController) sectionInputFromForm(c *fiber.Ctx) (createSectionRequest, string, error) {
	input := createSectionRequest{
		SectionInput: services.SectionInput{
			Title:    c.FormValue("title"),
			VideoURL: c.FormValue("videoUrl"),
			PDFURL:   c.FormValue("pdfUrl"),
		},
	}
	if raw := strings.TrimSpace(c.FormValue("chapterId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return input, "", utils.NewValidationError(msgChapterID, map[string]string{"chapterId": msgChapterID})
		}
		input.ChapterID = uint(id)
	}
	order, err := formInt(c, "order", services.MsgSectionOrder)
	if err != nil {
		return input, "", err
	}
	input.Order = order

	if fh := formFile(c, "pdf"); fh != nil {
		url, err := sc.Uploads.SavePDF(fh)
		if err != nil {
			return input, "", err
		}
		input.PDFURL = url
		return input, url, nil
	}
	return input, "", nil
}

func (sc *SectionsController) discard(url string) {
	if url == "" {
		return
	}
	if err := sc.Uploads.Remove(url); err != nil {
		sc.Logger.Printf("discard upload %s: %v", url, err)
	}
}

// UpdateSection godoc
// @Summary Update a section
// @Description Sending videoUrl or pdfUrl replaces the content and clears the other kind.
// @Tags sections
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Section ID"
// @Param section body services.SectionUpdate true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sections/{id} [put]
func (sc *SectionsController) UpdateSection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}

	var (
		input services.SectionUpdate
		saved string
	)
	if isMultipart(c) {
		input, saved, err = sc.sectionUpdateFromForm(c)
	} else {
		err = parseBody(c, &input)
	}
	if err != nil {
		sc.discard(saved)
		return utils.HandleError(c, sc.Logger, err)
	}

	section, err := sc.Courses.UpdateSection(actorOf(c), id, input)
	if err != nil {
		sc.discard(saved)
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.OK(c, section)
}

func (sc *SectionsController) sectionUpdateFromForm(c *fiber.Ctx) (services.SectionUpdate, string, error) {
	input := services.SectionUpdate{
		Title:    formString(c, "title"),
		VideoURL: formString(c, "videoUrl"),
		PDFURL:   formString(c, "pdfUrl"),
	}
	order, err := formInt(c, "order", services.MsgSectionOrder)
	if err != nil {
		return input, "", err
	}
	input.Order = order

	if fh := formFile(c, "pdf"); fh != nil {
		url, err := sc.Uploads.SavePDF(fh)
		if err != nil {
			return input, "", err
		}
		input.PDFURL = &url
		return input, url, nil
	}
	return input, "", nil
}

// DeleteSection godoc
// @Summary Delete a section
// @Tags sections
// @Param id path int true "Section ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sections/{id} [delete]
func (sc *SectionsController) DeleteSection(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	if err := sc.Courses.DeleteSection(actorOf(c), id); err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Section deleted successfully", nil)
}

// UploadPDF godoc
// @Summary Store a PDF for later use in a section
// @Tags sections
// @Accept mpfd
// @Produce json
// @Param pdf formData file true "PDF file"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /sections/upload-pdf [post]
func (sc *SectionsController) UploadPDF(c *fiber.Ctx) error {
	fh := formFile(c, "pdf")
	if fh == nil {
		return utils.BadRequest(c, "No PDF file uploaded")
	}
	url, err := sc.Uploads.SavePDF(fh)
	if err != nil {
		return utils.HandleError(c, sc.Logger, err)
	}
	return utils.OK(c, fiber.Map{
		"pdfUrl":   url,
		"filename": path.Base(url),
		"size":     fh.Size,
	})
}
