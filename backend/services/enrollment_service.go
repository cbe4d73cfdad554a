package services

import (
	"time"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	DB *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{DB: db}
}

func (s *EnrollmentService) find(studentID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := s.DB.Where("user_id = ? AND course_id = ?", studentID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateEnrollment is idempotent: an existing (student, course) pair is returned
// unchanged and created reports false.
func (s *EnrollmentService) CreateEnrollment(studentID, courseID uint) (enrollment *models.Enrollment, created bool, err error) {
	existing, err := s.find(studentID, courseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.Wrap(err, "find enrollment")
	}

	fresh := models.Enrollment{
		UserID:     studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.DB.Create(&fresh).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := s.find(studentID, courseID)
			if findErr != nil {
				return nil, false, errors.Wrap(findErr, "refetch enrollment")
			}
			return existing, false, nil
		}
		return nil, false, errors.Wrap(err, "create enrollment")
	}
	return &fresh, true, nil
}

// Enroll enrolls the calling student in an approved course.
func (s *EnrollmentService) Enroll(actor Actor, courseID uint) (*models.Enrollment, bool, error) {
	if actor.IsAnonymous() || actor.Role != models.RoleStudent {
		return nil, false, utils.NewForbidden("Student access only.")
	}
	if courseID == 0 {
		return nil, false, utils.NewValidationError("courseId is required", map[string]string{"courseId": "courseId is required"})
	}

	var count int64
	if err := s.DB.Model(&models.Course{}).
		Where("id = ? AND approved = ?", courseID, true).
		Count(&count).Error; err != nil {
		return nil, false, errors.Wrap(err, "find course")
	}
	if count == 0 {
		return nil, false, utils.NewNotFound("Course not found")
	}
	return s.CreateEnrollment(actor.UserID, courseID)
}

// GetStudentEnrollments returns the student's enrollments with full course content, newest first.
func (s *EnrollmentService) GetStudentEnrollments(studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := s.DB.Where("user_id = ?", studentID).
		Preload("Course").
		Preload("Course.Teacher").
		Preload("Course.Subject").
		Preload("Course.Chapters", orderedChapters).
		Preload("Course.Chapters.Sections", orderedSections).
		Order("enrolled_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}
	return enrollments, nil
}

// ListForStudent lets a student read their own enrollments and admins read anyone's.
func (s *EnrollmentService) ListForStudent(viewer Actor, studentID uint) ([]models.Enrollment, error) {
	if !viewer.CanManage(studentID) {
		return nil, utils.NewForbidden("You can only view your own enrollments")
	}
	var count int64
	if err := s.DB.Model(&models.User{}).Where("id = ?", studentID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "find student")
	}
	if count == 0 {
		return nil, utils.NewNotFound("Student not found")
	}
	return s.GetStudentEnrollments(studentID)
}
