package services

import (
	"strings"

	"tunilearn/backend/config"
	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MsgInvalidCredentials = "Invalid credentials."
	MsgEmailRegistered    = "Email already registered."
	MsgProfileCompleted   = "Profile already completed."
	MsgUnverifiedEmail    = "Google email is not verified."
)

type AuthService struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{DB: db, Cfg: cfg}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Role     string `json:"role" validate:"required,oneof=STUDENT TEACHER"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileChoice is the one-time role pick of a federated account.
type ProfileChoice struct {
	Role string `json:"role" validate:"required,oneof=STUDENT TEACHER"`
	Bio  string `json:"bio"`
}

// ExternalProfile is the identity handed over by a federated provider.
type ExternalProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	PictureURL    string
}

type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	name, email, role := in.Name, in.Email, in.Role

	var count int64
	if err := s.DB.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if count > 0 {
		return nil, utils.NewConflict(MsgEmailRegistered)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	hashed := string(hash)

	user := models.User{
		Name:             name,
		Email:            email,
		PasswordHash:     &hashed,
		Role:             role,
		ProfileCompleted: true,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflict(MsgEmailRegistered)
		}
		return nil, errors.Wrap(err, "create user")
	}

	return s.issue(&user)
}

// Login fails with the same message for an unknown email and a wrong password.
func (s *AuthService) Login(in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	email := in.Email

	var user models.User
	if err := s.DB.Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewUnauthorized(MsgInvalidCredentials)
		}
		return nil, errors.Wrap(err, "find user")
	}
	if !user.HasPassword() {
		return nil, utils.NewUnauthorized(MsgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, utils.NewUnauthorized(MsgInvalidCredentials)
	}

	return s.issue(&user)
}

// FederatedCallback finds the user by external id, then by a verified email (linking the
// external id), and creates an account with an incomplete profile otherwise.
func (s *AuthService) FederatedCallback(profile ExternalProfile) (*AuthResult, error) {
	profile.Email = normalizeEmail(profile.Email)
	if profile.ID == "" || profile.Email == "" {
		return nil, utils.NewBadRequest("Google profile is missing an id or email")
	}

	user, err := s.upsertFederated(profile)
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent callback created the row first
		user, err = s.upsertFederated(profile)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) upsertFederated(profile ExternalProfile) (*models.User, error) {
	var user models.User
	err := s.DB.Where("google_id = ?", profile.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find user by google id")
	}

	err = s.DB.Where("LOWER(email) = ?", profile.Email).First(&user).Error
	if err == nil {
		if !profile.EmailVerified {
			return nil, utils.NewForbidden(MsgUnverifiedEmail)
		}
		updates := map[string]interface{}{"google_id": profile.ID}
		if profile.PictureURL != "" {
			updates["profile_image_url"] = profile.PictureURL
		}
		if err := s.DB.Model(&user).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, "link google account")
		}
		googleID := profile.ID
		user.GoogleID = &googleID
		if profile.PictureURL != "" {
			user.ProfileImageURL = profile.PictureURL
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find user by email")
	}

	googleID := profile.ID
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.SplitN(profile.Email, "@", 2)[0]
	}
	user = models.User{
		Name:            name,
		Email:           profile.Email,
		GoogleID:        &googleID,
		ProfileImageURL: profile.PictureURL,
		Role:            models.RoleStudent,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "create google user")
	}
	return &user, nil
}

// CompleteProfile fixes the role of a federated account. It succeeds once.
func (s *AuthService) CompleteProfile(userID uint, in ProfileChoice) (*AuthResult, error) {
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("User not found")
		}
		return nil, errors.Wrap(err, "find user")
	}
	if user.ProfileCompleted {
		return nil, utils.NewConflict(MsgProfileCompleted)
	}

	res := s.DB.Model(&models.User{}).
		Where("id = ? AND profile_completed = ?", user.ID, false).
		Updates(map[string]interface{}{
			"role":              in.Role,
			"bio":               strings.TrimSpace(in.Bio),
			"profile_completed": true,
		})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "complete profile")
	}
	if res.RowsAffected == 0 {
		return nil, utils.NewConflict(MsgProfileCompleted)
	}

	user.Role = in.Role
	user.Bio = strings.TrimSpace(in.Bio)
	user.ProfileCompleted = true
	return s.issue(&user)
}

func (s *AuthService) Me(userID uint) (*models.PublicUser, error) {
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

// RedirectPath is where the frontend sends a user after signing in.
func RedirectPath(user models.PublicUser) string {
	if !user.ProfileCompleted {
		return "/complete-profile"
	}
	return "/" + strings.ToLower(user.Role) + "/dashboard"
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateJWTToken(user, s.Cfg)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}
