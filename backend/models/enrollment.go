package models

import "time"

// Enrollment links a student to a course at most once.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolledAt"`
	User       *User     `json:"user,omitempty"`
	Course     *Course   `json:"course,omitempty"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Subject{},
		&Course{},
		&Chapter{},
		&Section{},
		&Enrollment{},
	}
}
