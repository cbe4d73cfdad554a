package models

import (
	"time"
)

const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

type User struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"not null" json:"name"`
	Email            string       `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     *string      `gorm:"column:password_hash" json:"-"`
	GoogleID         *string      `gorm:"column:google_id;uniqueIndex" json:"-"`
	Role             string       `gorm:"size:16;not null;default:STUDENT" json:"role"`
	ProfileCompleted bool         `gorm:"not null;default:false" json:"profileCompleted"`
	Bio              string       `gorm:"type:text" json:"bio"`
	ProfileImageURL  string       `gorm:"column:profile_image_url" json:"profileImageUrl"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	Courses          []Course     `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
	Enrollments      []Enrollment `gorm:"constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
}

// PublicUser is the user shape returned by the API.
type PublicUser struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	ProfileCompleted bool      `json:"profileCompleted"`
	Bio              string    `json:"bio"`
	ProfileImageURL  string    `json:"profileImageUrl"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		ProfileCompleted: u.ProfileCompleted,
		Bio:              u.Bio,
		ProfileImageURL:  u.ProfileImageURL,
		CreatedAt:        u.CreatedAt,
	}
}

// Instructor is the part of a teacher's account shown next to their courses.
type Instructor struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profileImageUrl"`
}

func (u *User) Instructor() *Instructor {
	return &Instructor{ID: u.ID, Name: u.Name, Bio: u.Bio, ProfileImageURL: u.ProfileImageURL}
}

// HasPassword is false for accounts created through Google sign-in.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}
