package services

import (
	"bytes"
	"fmt"
	"strings"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MsgCourseAccessDenied = "Course not found or access denied"
	MsgTeacherNotFound    = "Teacher not found"
	MsgTeacherRole        = "User must have TEACHER role to create courses"
	MsgSubjectNotFound    = "Subject not found"
)

// CourseService holds the course authoring rules for courses, chapters and sections.
type CourseService struct {
	DB *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{DB: db}
}

// WithTx returns a copy of the service bound to tx.
func (s *CourseService) WithTx(tx *gorm.DB) *CourseService {
	return &CourseService{DB: tx}
}

// FlexList accepts either a JSON array of strings or a single string.
// A string holding a JSON array is decoded, any other string becomes a one-item list.
type FlexList []string

func (l *FlexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = ParseFlexList(s)
		return nil
	}
	var items []string
	if err := sonic.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func ParseFlexList(s string) FlexList {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var items []string
	if err := sonic.UnmarshalString(s, &items); err == nil {
		return items
	}
	return FlexList{s}
}

func toJSONList(items []string) datatypes.JSON {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	raw, err := sonic.Marshal(cleaned)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

type CourseInput struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              *float64 `json:"price"`
	SubjectID          uint     `json:"subjectId"`
	TeacherID          uint     `json:"-"`
	CoverImageURL      string   `json:"coverImageUrl"`
	ResourceURLs       []string `json:"resourceUrls"`
	LearningObjectives FlexList `json:"learningObjectives"`
	Features           FlexList `json:"features"`
	Prerequisites      string   `json:"prerequisites"`
}

type CourseUpdate struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Price              *float64  `json:"price"`
	SubjectID          *uint     `json:"subjectId"`
	CoverImageURL      *string   `json:"coverImageUrl"`
	ResourceURLs       *[]string `json:"resourceUrls"`
	LearningObjectives *FlexList `json:"learningObjectives"`
	Features           *FlexList `json:"features"`
	Prerequisites      *string   `json:"prerequisites"`
	Approved           *bool     `json:"approved"`
}

type CourseFilter struct {
	All       bool
	Approved  *bool
	Mine      bool
	SubjectID uint
	Search    string
}

func validateTitle(v *utils.Violations, title string) {
	if !utils.MinLength(title, 3) {
		v.Add("title", "Course title must be at least 3 characters long")
	}
}

func validateDescription(v *utils.Violations, description string) {
	if !utils.MinLength(description, 10) {
		v.Add("description", "Course description must be at least 10 characters long")
	}
}

func validatePrice(v *utils.Violations, price float64) {
	if price < 0 {
		v.Add("price", "Course price must be a non-negative number")
	}
}

func (s *CourseService) CreateCourse(in CourseInput) (*models.Course, error) {
	var v utils.Violations
	validateTitle(&v, in.Title)
	validateDescription(&v, in.Description)
	if in.SubjectID == 0 {
		v.Add("subjectId", "Valid subject ID is required")
	}
	if in.TeacherID == 0 {
		v.Add("teacherId", "Valid teacher ID is required")
	}
	price := 0.0
	if in.Price != nil {
		price = *in.Price
	}
	validatePrice(&v, price)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var teacher models.User
	if err := s.DB.First(&teacher, in.TeacherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound(MsgTeacherNotFound)
		}
		return nil, errors.Wrap(err, "find teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, utils.NewForbidden(MsgTeacherRole)
	}
	if err := s.ensureSubject(in.SubjectID); err != nil {
		return nil, err
	}

	course := models.Course{
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		Price:              price,
		TeacherID:          teacher.ID,
		SubjectID:          in.SubjectID,
		Approved:           false,
		CoverImageURL:      in.CoverImageURL,
		ResourceURLs:       toJSONList(in.ResourceURLs),
		LearningObjectives: toJSONList(in.LearningObjectives),
		Features:           toJSONList(in.Features),
		Prerequisites:      strings.TrimSpace(in.Prerequisites),
	}
	if err := s.DB.Create(&course).Error; err != nil {
		return nil, errors.Wrap(err, "create course")
	}

	var subject models.Subject
	if err := s.DB.First(&subject, course.SubjectID).Error; err != nil {
		return nil, errors.Wrap(err, "load subject")
	}
	course.Teacher = &teacher
	course.Instructor = teacher.Instructor()
	course.Subject = &subject
	return &course, nil
}

func (s *CourseService) ensureSubject(id uint) error {
	var count int64
	if err := s.DB.Model(&models.Subject{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "find subject")
	}
	if count == 0 {
		return utils.NewNotFound(MsgSubjectNotFound)
	}
	return nil
}

// ownedCourse loads a course the actor may mutate.
func (s *CourseService) ownedCourse(actor Actor, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := s.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("Course not found")
		}
		return nil, errors.Wrap(err, "find course")
	}
	if !actor.CanManage(course.TeacherID) {
		return nil, utils.NewForbidden(MsgCourseAccessDenied)
	}
	return &course, nil
}

// AuthorizeCourse loads a course only when the actor may mutate it.
func (s *CourseService) AuthorizeCourse(actor Actor, courseID uint) (*models.Course, error) {
	return s.ownedCourse(actor, courseID)
}

// ResourceURLs decodes the course's stored resource list.
func ResourceURLs(course *models.Course) []string {
	if course == nil || len(course.ResourceURLs) == 0 {
		return nil
	}
	var urls []string
	if err := sonic.Unmarshal(course.ResourceURLs, &urls); err != nil {
		return nil
	}
	return urls
}

func (s *CourseService) UpdateCourse(actor Actor, courseID uint, in CourseUpdate) (*models.Course, error) {
	if in.Approved != nil && !actor.IsAdmin() {
		return nil, utils.NewForbidden("Only admins can change course approval")
	}

	course, err := s.ownedCourse(actor, courseID)
	if err != nil {
		return nil, err
	}

	var v utils.Violations
	if in.Title != nil {
		validateTitle(&v, *in.Title)
	}
	if in.Description != nil {
		validateDescription(&v, *in.Description)
	}
	if in.Price != nil {
		validatePrice(&v, *in.Price)
	}
	if in.SubjectID != nil && *in.SubjectID == 0 {
		v.Add("subjectId", "Valid subject ID is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.SubjectID != nil {
		if err := s.ensureSubject(*in.SubjectID); err != nil {
			return nil, err
		}
		updates["subject_id"] = *in.SubjectID
	}
	if in.CoverImageURL != nil {
		updates["cover_image_url"] = *in.CoverImageURL
	}
	if in.ResourceURLs != nil {
		updates["resource_urls"] = toJSONList(*in.ResourceURLs)
	}
	if in.LearningObjectives != nil {
		updates["learning_objectives"] = toJSONList(*in.LearningObjectives)
	}
	if in.Features != nil {
		updates["features"] = toJSONList(*in.Features)
	}
	if in.Prerequisites != nil {
		updates["prerequisites"] = strings.TrimSpace(*in.Prerequisites)
	}
	if in.Approved != nil {
		updates["approved"] = *in.Approved
	}

	if len(updates) > 0 {
		if err := s.DB.Model(course).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, "update course")
		}
	}
	return s.loadCourse(s.DB.Where("courses.id = ?", course.ID))
}

// SetApproval flips the admin-controlled visibility flag.
func (s *CourseService) SetApproval(actor Actor, courseID uint, approved bool) (*models.Course, error) {
	if !actor.IsAdmin() {
		return nil, utils.NewForbidden("Admin access only.")
	}
	res := s.DB.Model(&models.Course{}).Where("id = ?", courseID).Update("approved", approved)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "set approval")
	}
	if res.RowsAffected == 0 {
		return nil, utils.NewNotFound("Course not found")
	}
	return s.loadCourse(s.DB.Where("courses.id = ?", courseID))
}

// DeleteCourse removes the course with its chapters, sections and enrollments.
func (s *CourseService) DeleteCourse(actor Actor, courseID uint) error {
	course, err := s.ownedCourse(actor, courseID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		chapterIDs := tx.Model(&models.Chapter{}).Select("id").Where("course_id = ?", course.ID)
		if err := tx.Where("chapter_id IN (?)", chapterIDs).Delete(&models.Section{}).Error; err != nil {
			return errors.Wrap(err, "delete sections")
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Chapter{}).Error; err != nil {
			return errors.Wrap(err, "delete chapters")
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Enrollment{}).Error; err != nil {
			return errors.Wrap(err, "delete enrollments")
		}
		if err := tx.Delete(&models.Course{}, course.ID).Error; err != nil {
			return errors.Wrap(err, "delete course")
		}
		return nil
	})
}

func orderedChapters(db *gorm.DB) *gorm.DB {
	return db.Order("chapters.sort_order ASC, chapters.id ASC")
}

func orderedSections(db *gorm.DB) *gorm.DB {
	return db.Order("sections.sort_order ASC, sections.id ASC")
}

func (s *CourseService) loadCourse(query *gorm.DB) (*models.Course, error) {
	var course models.Course
	err := query.
		Preload("Teacher").
		Preload("Subject").
		Preload("Chapters", orderedChapters).
		Preload("Chapters.Sections", orderedSections).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetCourseWithContent scopes to the teacher's own courses when teacherID is set,
// and to approved courses otherwise.
func (s *CourseService) GetCourseWithContent(courseID, teacherID uint) (*models.Course, error) {
	query := s.DB.Where("courses.id = ?", courseID)
	if teacherID != 0 {
		query = query.Where("courses.teacher_id = ?", teacherID)
	} else {
		query = query.Where("courses.approved = ?", true)
	}

	course, err := s.loadCourse(query)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound(MsgCourseAccessDenied)
		}
		return nil, errors.Wrap(err, "load course")
	}
	return course, nil
}

// GetCourse shows drafts to their owner and to admins only.
func (s *CourseService) GetCourse(viewer Actor, courseID uint) (*models.Course, error) {
	if viewer.IsAdmin() {
		course, err := s.loadCourse(s.DB.Where("courses.id = ?", courseID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NewNotFound(MsgCourseAccessDenied)
			}
			return nil, errors.Wrap(err, "load course")
		}
		return course, nil
	}
	if viewer.IsTeacher() {
		course, err := s.GetCourseWithContent(courseID, viewer.UserID)
		if err == nil || !utils.IsNotFound(err) {
			return course, err
		}
	}
	return s.GetCourseWithContent(courseID, 0)
}

func (s *CourseService) ListCourses(viewer Actor, f CourseFilter) ([]models.Course, error) {
	query := s.DB.Model(&models.Course{})

	switch {
	case f.Mine && viewer.IsTeacher():
		query = query.Where("courses.teacher_id = ?", viewer.UserID)
	case viewer.IsAdmin() && f.All:
	case viewer.IsAdmin() && f.Approved != nil:
		query = query.Where("courses.approved = ?", *f.Approved)
	default:
		query = query.Where("courses.approved = ?", true)
	}

	if f.SubjectID != 0 {
		query = query.Where("courses.subject_id = ?", f.SubjectID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(courses.title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var courses []models.Course
	err := query.
		Preload("Teacher").
		Preload("Subject").
		Preload("Chapters", orderedChapters).
		Order("courses.created_at DESC, courses.id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return courses, nil
}

type ComposeSection struct {
	Title    string `json:"title"`
	Order    *int   `json:"order"`
	VideoURL string `json:"videoUrl"`
	PDFURL   string `json:"pdfUrl"`
}

type ComposeChapter struct {
	Title    string           `json:"title"`
	Order    *int             `json:"order"`
	Sections []ComposeSection `json:"sections"`
}

type ComposeInput struct {
	Course   CourseInput      `json:"course"`
	Chapters []ComposeChapter `json:"chapters"`
}

// Compose creates a course with its chapters and sections in one transaction.
func (s *CourseService) Compose(actor Actor, in ComposeInput) (*models.Course, error) {
	in.Course.TeacherID = actor.UserID

	var courseID uint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		svc := s.WithTx(tx)
		course, err := svc.CreateCourse(in.Course)
		if err != nil {
			return err
		}
		courseID = course.ID

		for i, ch := range in.Chapters {
			chapter, err := svc.AddChapterToCourse(actor, course.ID, ChapterInput{Title: ch.Title, Order: ch.Order})
			if err != nil {
				return prefixed(err, fmt.Sprintf("chapters[%d]", i))
			}
			for j, sec := range ch.Sections {
				_, err := svc.AddSectionToChapter(actor, chapter.ID, SectionInput{
					Title:    sec.Title,
					Order:    sec.Order,
					VideoURL: sec.VideoURL,
					PDFURL:   sec.PDFURL,
				})
				if err != nil {
					return prefixed(err, fmt.Sprintf("chapters[%d].sections[%d]", i, j))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetCourseWithContent(courseID, actor.UserID)
}

// prefixed adds the location of a failing nested item to client-facing errors.
func prefixed(err error, where string) error {
	if appErr, ok := errors.Cause(err).(*utils.AppError); ok {
		return &utils.AppError{Code: appErr.Code, Message: where + ": " + appErr.Message, Fields: appErr.Fields}
	}
	return err
}
