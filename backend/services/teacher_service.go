package services

import (
	"strings"
	"time"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type TeacherCourse struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	CoverImageURL string    `json:"coverImageUrl"`
	Approved      bool      `json:"approved"`
	CreatedAt     time.Time `json:"createdAt"`
}

type TeacherProfile struct {
	ID              uint            `json:"id"`
	FullName        string          `json:"fullName"`
	Bio             string          `json:"bio"`
	ProfileImageURL string          `json:"profileImageUrl"`
	Courses         []TeacherCourse `json:"courses"`
}

type TeacherProfileUpdate struct {
	Name            *string `json:"name"`
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"-"`
}

type TeacherService struct {
	DB *gorm.DB
}

func NewTeacherService(db *gorm.DB) *TeacherService {
	return &TeacherService{DB: db}
}

func (s *TeacherService) findTeacher(teacherID uint) (*models.User, error) {
	var teacher models.User
	err := s.DB.Where("id = ? AND role = ?", teacherID, models.RoleTeacher).First(&teacher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound(MsgTeacherNotFound)
		}
		return nil, errors.Wrap(err, "find teacher")
	}
	return &teacher, nil
}

// GetTeacherProfile lists approved courses, or every course when the viewer is
// the teacher or an admin.
func (s *TeacherService) GetTeacherProfile(viewer Actor, teacherID uint) (*TeacherProfile, error) {
	teacher, err := s.findTeacher(teacherID)
	if err != nil {
		return nil, err
	}

	query := s.DB.Model(&models.Course{}).Where("teacher_id = ?", teacher.ID)
	if !viewer.CanManage(teacher.ID) {
		query = query.Where("approved = ?", true)
	}
	var courses []models.Course
	if err := query.Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "list teacher courses")
	}

	profile := &TeacherProfile{
		ID:              teacher.ID,
		FullName:        teacher.Name,
		Bio:             teacher.Bio,
		ProfileImageURL: teacher.ProfileImageURL,
		Courses:         make([]TeacherCourse, 0, len(courses)),
	}
	for _, c := range courses {
		profile.Courses = append(profile.Courses, TeacherCourse{
			ID:            c.ID,
			Title:         c.Title,
			Description:   c.Description,
			Price:         c.Price,
			CoverImageURL: c.CoverImageURL,
			Approved:      c.Approved,
			CreatedAt:     c.CreatedAt,
		})
	}
	return profile, nil
}

func (s *TeacherService) UpdateTeacherProfile(actor Actor, teacherID uint, in TeacherProfileUpdate) (*TeacherProfile, error) {
	if !actor.CanManage(teacherID) {
		return nil, utils.NewForbidden("You can only update your own profile")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, utils.NewValidationError("Name cannot be empty", map[string]string{"name": "Name cannot be empty"})
	}

	teacher, err := s.findTeacher(teacherID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.ProfileImageURL != nil {
		updates["profile_image_url"] = *in.ProfileImageURL
	}
	if len(updates) > 0 {
		if err := s.DB.Model(teacher).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, "update teacher profile")
		}
	}
	return s.GetTeacherProfile(actor, teacher.ID)
}
