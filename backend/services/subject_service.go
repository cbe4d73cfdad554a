package services

import (
	"strings"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const MsgSubjectExists = "Subject already exists"

type SubjectService struct {
	DB *gorm.DB
}

func NewSubjectService(db *gorm.DB) *SubjectService {
	return &SubjectService{DB: db}
}

func (s *SubjectService) List() ([]models.Subject, error) {
	var subjects []models.Subject
	if err := s.DB.Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, errors.Wrap(err, "list subjects")
	}
	return subjects, nil
}

// Create rejects empty names and names that already exist in any letter case.
func (s *SubjectService) Create(name string) (*models.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.NewValidationError("Subject name is required", map[string]string{"name": "Subject name is required"})
	}

	slugValue := slug.Make(name)
	if slugValue == "" {
		slugValue = strings.ToLower(name)
	}
	var count int64
	if err := s.DB.Model(&models.Subject{}).
		Where("LOWER(name) = LOWER(?) OR slug = ?", name, slugValue).
		Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check subject")
	}
	if count > 0 {
		return nil, utils.NewConflict(MsgSubjectExists)
	}

	subject := models.Subject{Name: name, Slug: slugValue}
	if err := s.DB.Create(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflict(MsgSubjectExists)
		}
		return nil, errors.Wrap(err, "create subject")
	}
	return &subject, nil
}
