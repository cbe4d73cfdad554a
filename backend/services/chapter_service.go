package services

import (
	"database/sql"
	"strings"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	MsgChapterTitle     = "Chapter title must be at least 2 characters long"
	MsgChapterOrder     = "Chapter order must be a non-negative integer"
	MsgDuplicateChapter = "A chapter with this title already exists in this course"
	MsgChapterNotFound  = "Chapter not found"
)

type ChapterInput struct {
	Title string `json:"title"`
	Order *int   `json:"order"`
}

type ChapterUpdate struct {
	Title *string `json:"title"`
	Order *int    `json:"order"`
}

// AddChapterToCourse appends a chapter; without an explicit order it goes after the last one.
func (s *CourseService) AddChapterToCourse(actor Actor, courseID uint, in ChapterInput) (*models.Chapter, error) {
	course, err := s.ownedCourse(actor, courseID)
	if err != nil {
		return nil, err
	}

	var v utils.Violations
	if !utils.MinLength(in.Title, 2) {
		v.Add("title", MsgChapterTitle)
	}
	if in.Order != nil && *in.Order < 0 {
		v.Add("order", MsgChapterOrder)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if err := s.ensureUniqueChapterTitle(course.ID, title, 0); err != nil {
		return nil, err
	}

	var order int
	if in.Order != nil {
		order = *in.Order
	} else {
		order, err = s.nextOrder(&models.Chapter{}, "course_id", course.ID)
		if err != nil {
			return nil, err
		}
	}

	chapter := models.Chapter{Title: title, CourseID: course.ID, SortOrder: order}
	if err := s.DB.Create(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewValidationError(MsgDuplicateChapter, map[string]string{"title": MsgDuplicateChapter})
		}
		return nil, errors.Wrap(err, "create chapter")
	}
	return &chapter, nil
}

func (s *CourseService) ensureUniqueChapterTitle(courseID uint, title string, exceptID uint) error {
	query := s.DB.Model(&models.Chapter{}).Where("course_id = ? AND title = ?", courseID, title)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return errors.Wrap(err, "check chapter title")
	}
	if count > 0 {
		return utils.NewValidationError(MsgDuplicateChapter, map[string]string{"title": MsgDuplicateChapter})
	}
	return nil
}

// nextOrder returns max(sort_order)+1 among the rows sharing the parent, or 1 for the first row.
func (s *CourseService) nextOrder(model interface{}, parentColumn string, parentID uint) (int, error) {
	var maxOrder sql.NullInt64
	row := s.DB.Model(model).
		Where(parentColumn+" = ?", parentID).
		Select("MAX(sort_order)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		return 0, errors.Wrap(err, "compute next order")
	}
	if !maxOrder.Valid {
		return 1, nil
	}
	return int(maxOrder.Int64) + 1, nil
}

// ownedChapter loads a chapter whose course the actor may mutate.
func (s *CourseService) ownedChapter(actor Actor, chapterID uint) (*models.Chapter, *models.Course, error) {
	var chapter models.Chapter
	if err := s.DB.First(&chapter, chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewNotFound(MsgChapterNotFound)
		}
		return nil, nil, errors.Wrap(err, "find chapter")
	}
	course, err := s.ownedCourse(actor, chapter.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return &chapter, course, nil
}

func (s *CourseService) UpdateChapter(actor Actor, chapterID uint, in ChapterUpdate) (*models.Chapter, error) {
	chapter, _, err := s.ownedChapter(actor, chapterID)
	if err != nil {
		return nil, err
	}

	var v utils.Violations
	if in.Title != nil && !utils.MinLength(*in.Title, 2) {
		v.Add("title", MsgChapterTitle)
	}
	if in.Order != nil && *in.Order < 0 {
		v.Add("order", MsgChapterOrder)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := s.ensureUniqueChapterTitle(chapter.CourseID, title, chapter.ID); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Order != nil {
		updates["sort_order"] = *in.Order
	}
	if len(updates) > 0 {
		if err := s.DB.Model(chapter).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, utils.NewValidationError(MsgDuplicateChapter, map[string]string{"title": MsgDuplicateChapter})
			}
			return nil, errors.Wrap(err, "update chapter")
		}
	}
	return s.loadChapter(chapter.ID)
}

// DeleteChapter removes the chapter and its sections.
func (s *CourseService) DeleteChapter(actor Actor, chapterID uint) error {
	chapter, _, err := s.ownedChapter(actor, chapterID)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chapter_id = ?", chapter.ID).Delete(&models.Section{}).Error; err != nil {
			return errors.Wrap(err, "delete sections")
		}
		if err := tx.Delete(&models.Chapter{}, chapter.ID).Error; err != nil {
			return errors.Wrap(err, "delete chapter")
		}
		return nil
	})
}

func (s *CourseService) loadChapter(chapterID uint) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := s.DB.Preload("Sections", orderedSections).First(&chapter, chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound(MsgChapterNotFound)
		}
		return nil, errors.Wrap(err, "load chapter")
	}
	return &chapter, nil
}

// visibleCourses restricts a query joined with courses to what the viewer may read.
func visibleCourses(query *gorm.DB, viewer Actor) *gorm.DB {
	switch {
	case viewer.IsAdmin():
		return query
	case viewer.IsAnonymous():
		return query.Where("courses.approved = ?", true)
	default:
		return query.Where("courses.approved = ? OR courses.teacher_id = ?", true, viewer.UserID)
	}
}

func (s *CourseService) GetChapter(viewer Actor, chapterID uint) (*models.Chapter, error) {
	var count int64
	err := visibleCourses(s.DB.Model(&models.Chapter{}).
		Joins("JOIN courses ON courses.id = chapters.course_id").
		Where("chapters.id = ?", chapterID), viewer).
		Count(&count).Error
	if err != nil {
		return nil, errors.Wrap(err, "check chapter visibility")
	}
	if count == 0 {
		return nil, utils.NewNotFound(MsgChapterNotFound)
	}
	return s.loadChapter(chapterID)
}

// ListChapters lists readable chapters, optionally for a single course.
func (s *CourseService) ListChapters(viewer Actor, courseID uint) ([]models.Chapter, error) {
	query := s.DB.Model(&models.Chapter{}).
		Select("chapters.*").
		Joins("JOIN courses ON courses.id = chapters.course_id")
	if courseID != 0 {
		query = query.Where("chapters.course_id = ?", courseID)
	}

	var chapters []models.Chapter
	err := visibleCourses(query, viewer).
		Preload("Sections", orderedSections).
		Order("chapters.course_id ASC, chapters.sort_order ASC, chapters.id ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, errors.Wrap(err, "list chapters")
	}
	return chapters, nil
}
