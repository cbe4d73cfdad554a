package controllers

import (
	"log"
	"strconv"
	"strings"

	"tunilearn/backend/config"
	"tunilearn/backend/models"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CoursesController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Logger  *log.Logger
	Courses *services.CourseService
	Uploads *services.UploadService
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *CoursesController {
	return &CoursesController{
		DB:      db,
		Cfg:     cfg,
		Logger:  logger,
		Courses: services.NewCourseService(db),
		Uploads: services.NewUploadService(cfg.UploadDir),
	}
}

// GetCourses godoc
// @Summary List courses
// @Description Approved courses for everyone. Admins may pass all=true or approved=false, teachers mine=true.
// @Tags courses
// @Produce json
// @Param all query bool false "Admin only: every course"
// @Param approved query bool false "Admin only: filter by approval"
// @Param mine query bool false "Teacher only: own courses"
// @Param subjectId query int false "Subject filter"
// @Param search query string false "Title search"
// @Success 200 {object} utils.SuccessResponse
// @Router /courses [get]
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	subjectID, err := queryUint(c, "subjectId")
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}

	filter := services.CourseFilter{
		All:       c.QueryBool("all", false),
		Mine:      c.QueryBool("mine", false),
		SubjectID: subjectID,
		Search:    c.Query("search"),
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.BadRequest(c, "Invalid approved")
		}
		filter.Approved = &approved
	}

	courses, err := cc.Courses.ListCourses(actorOf(c), filter)
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.OK(c, courses)
}

// GetCourse godoc
// @Summary Course with chapters and sections
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	course, err := cc.Courses.GetCourse(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.OK(c, course)
}

// CreateCourse godoc
// @Summary Create a course
// @Description JSON body or multipart form with a thumbnail and up to 10 resources. New courses wait for approval.
// @Tags courses
// @Accept json,mpfd
// @Produce json
// @Param course body services.CourseInput true "Course data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var (
		input services.CourseInput
		saved []string
		err   error
	)
	if isMultipart(c) {
		input, saved, err = cc.courseInputFromForm(c)
	} else {
		err = parseBody(c, &input)
	}
	if err != nil {
		cc.discard(saved)
		return utils.HandleError(c, cc.Logger, err)
	}

	input.TeacherID = actorOf(c).UserID
	course, err := cc.Courses.CreateCourse(input)
	if err != nil {
		cc.discard(saved)
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusCreated, "Course created successfully", course)
}

func (cc *CoursesController) courseInputFromForm(c *fiber.Ctx) (services.CourseInput, []string, error) {
	input := services.CourseInput{
		Title:         c.FormValue("title"),
		Description:   c.FormValue("description"),
		Prerequisites: c.FormValue("prerequisites"),
		CoverImageURL: c.FormValue("coverImageUrl"),
	}
	if list := formList(c, "learningObjectives"); list != nil {
		input.LearningObjectives = *list
	}
	if list := formList(c, "features"); list != nil {
		input.Features = *list
	}

	var v utils.Violations
	if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v.Add("price", "Course price must be a non-negative number")
		} else {
			input.Price = &price
		}
	}
	if raw := strings.TrimSpace(c.FormValue("subjectId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			v.Add("subjectId", "Valid subject ID is required")
		} else {
			input.SubjectID = uint(id)
		}
	}
	if err := v.Err(); err != nil {
		return input, nil, err
	}

	var saved []string
	if fh := formFile(c, "thumbnail"); fh != nil {
		url, err := cc.Uploads.SaveThumbnail(fh)
		if err != nil {
			return input, saved, err
		}
		saved = append(saved, url)
		input.CoverImageURL = url
	}
	for _, fh := range formFiles(c, "resources") {
		url, err := cc.Uploads.SaveResource(fh)
		if err != nil {
			return input, saved, err
		}
		saved = append(saved, url)
		input.ResourceURLs = append(input.ResourceURLs, url)
	}
	return input, saved, nil
}

// superseded lists the stored files an update no longer references.
func superseded(previous *models.Course, in services.CourseUpdate) []string {
	var stale []string
	if in.CoverImageURL != nil && previous.CoverImageURL != "" && *in.CoverImageURL != previous.CoverImageURL {
		stale = append(stale, previous.CoverImageURL)
	}
	if in.ResourceURLs != nil {
		kept := make(map[string]bool, len(*in.ResourceURLs))
		for _, url := range *in.ResourceURLs {
			kept[url] = true
		}
		for _, url := range services.ResourceURLs(previous) {
			if !kept[url] {
				stale = append(stale, url)
			}
		}
	}
	return stale
}

// discard removes stored files that nothing references any more.
func (cc *CoursesController) discard(urls []string) {
	for _, url := range urls {
		if err := cc.Uploads.Remove(url); err != nil {
			cc.Logger.Printf("discard upload %s: %v", url, err)
		}
	}
}

// UpdateCourse godoc
// @Summary Update a course
// @Description Owner or admin. Only admins may change approved.
// @Tags courses
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Course ID"
// @Param course body services.CourseUpdate true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}

	previous, err := cc.Courses.AuthorizeCourse(actorOf(c), id)
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}

	var (
		input services.CourseUpdate
		saved []string
	)
	if isMultipart(c) {
		input, saved, err = cc.courseUpdateFromForm(c)
	} else {
		err = parseBody(c, &input)
	}
	if err != nil {
		cc.discard(saved)
		return utils.HandleError(c, cc.Logger, err)
	}

	course, err := cc.Courses.UpdateCourse(actorOf(c), id, input)
	if err != nil {
		cc.discard(saved)
		return utils.HandleError(c, cc.Logger, err)
	}
	cc.discard(superseded(previous, input))
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Course updated successfully", course)
}

func (cc *CoursesController) courseUpdateFromForm(c *fiber.Ctx) (services.CourseUpdate, []string, error) {
	input := services.CourseUpdate{
		Title:              formString(c, "title"),
		Description:        formString(c, "description"),
		Prerequisites:      formString(c, "prerequisites"),
		CoverImageURL:      formString(c, "coverImageUrl"),
		LearningObjectives: formList(c, "learningObjectives"),
		Features:           formList(c, "features"),
	}

	var v utils.Violations
	if raw := formString(c, "price"); raw != nil {
		price, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if err != nil {
			v.Add("price", "Course price must be a non-negative number")
		} else {
			input.Price = &price
		}
	}
	if raw := formString(c, "subjectId"); raw != nil {
		id, err := strconv.ParseUint(strings.TrimSpace(*raw), 10, 64)
		if err != nil {
			v.Add("subjectId", "Valid subject ID is required")
		} else {
			subjectID := uint(id)
			input.SubjectID = &subjectID
		}
	}
	if raw := formString(c, "approved"); raw != nil {
		approved, err := strconv.ParseBool(strings.TrimSpace(*raw))
		if err != nil {
			v.Add("approved", "approved must be a boolean")
		} else {
			input.Approved = &approved
		}
	}
	if err := v.Err(); err != nil {
		return input, nil, err
	}

	var saved []string
	if fh := formFile(c, "thumbnail"); fh != nil {
		url, err := cc.Uploads.SaveThumbnail(fh)
		if err != nil {
			return input, saved, err
		}
		saved = append(saved, url)
		input.CoverImageURL = &url
	}
	if files := formFiles(c, "resources"); len(files) > 0 {
		urls := make([]string, 0, len(files))
		for _, fh := range files {
			url, err := cc.Uploads.SaveResource(fh)
			if err != nil {
				return input, saved, err
			}
			saved = append(saved, url)
			urls = append(urls, url)
		}
		input.ResourceURLs = &urls
	}
	return input, saved, nil
}

type approveRequest struct {
	Approved *bool `json:"approved"`
}

// ApproveCourse godoc
// @Summary Approve or unapprove a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body approveRequest false "Defaults to approved=true"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/approve [patch]
func (cc *CoursesController) ApproveCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}

	var input approveRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return utils.HandleError(c, cc.Logger, err)
		}
	}
	approved := true
	if input.Approved != nil {
		approved = *input.Approved
	}

	course, err := cc.Courses.SetApproval(actorOf(c), id, approved)
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.OK(c, course)
}

// DeleteCourse godoc
// @Summary Delete a course with its chapters, sections and enrollments
// @Tags courses
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [delete]
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	if err := cc.Courses.DeleteCourse(actorOf(c), id); err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusOK, "Course deleted successfully", nil)
}

// AddChapter godoc
// @Summary Add a chapter to a course
// @Description Without order the chapter goes after the last one.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param chapter body services.ChapterInput true "Chapter"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{courseId}/chapters [post]
func (cc *CoursesController) AddChapter(c *fiber.Ctx) error {
	courseID, err := paramID(c, "courseId")
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	var input services.ChapterInput
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}

	chapter, err := cc.Courses.AddChapterToCourse(actorOf(c), courseID, input)
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.Created(c, chapter)
}

// ComposeCourse godoc
// @Summary Create a course with chapters and sections in one request
// @Description Everything is written in one transaction.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.ComposeInput true "Course, chapters and sections"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/compose [post]
func (cc *CoursesController) ComposeCourse(c *fiber.Ctx) error {
	var input services.ComposeInput
	if err := parseBody(c, &input); err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}

	course, err := cc.Courses.Compose(actorOf(c), input)
	if err != nil {
		return utils.HandleError(c, cc.Logger, err)
	}
	return utils.SuccessWithMessage(c, fiber.StatusCreated, "Course created successfully", course)
}
