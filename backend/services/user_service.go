package services

import (
	"strings"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type UserUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Bio   *string `json:"bio"`
}

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

func (s *UserService) GetUser(viewer Actor, userID uint) (*models.PublicUser, error) {
	if !viewer.CanManage(userID) {
		return nil, utils.NewForbidden("You can only view your own account")
	}
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("User not found")
		}
		return nil, errors.Wrap(err, "find user")
	}
	public := user.Public()
	return &public, nil
}

func (s *UserService) UpdateUser(actor Actor, userID uint, in UserUpdate) (*models.PublicUser, error) {
	if !actor.CanManage(userID) {
		return nil, utils.NewForbidden("You can only update your own account")
	}

	var v utils.Violations
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		v.Add("name", "Name cannot be empty")
	}
	var email string
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		if !utils.IsEmail(email) {
			v.Add("email", utils.MsgInvalidEmail)
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("User not found")
		}
		return nil, errors.Wrap(err, "find user")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Email != nil && email != user.Email {
		var count int64
		if err := s.DB.Model(&models.User{}).
			Where("LOWER(email) = ? AND id <> ?", email, user.ID).
			Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "check email")
		}
		if count > 0 {
			return nil, utils.NewConflict("Email already in use.")
		}
		updates["email"] = email
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, utils.NewConflict("Email already in use.")
			}
			return nil, errors.Wrap(err, "update user")
		}
	}
	return s.GetUser(actor, user.ID)
}
