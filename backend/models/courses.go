package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Courses   []Course  `json:"courses,omitempty"`
}

type Course struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"not null" json:"title"`
	Description        string         `gorm:"type:text;not null" json:"description"`
	Price              float64        `gorm:"not null;default:0" json:"price"`
	TeacherID          uint           `gorm:"not null;index" json:"teacherId"`
	Teacher            *User          `gorm:"foreignKey:TeacherID" json:"-"`
	Instructor         *Instructor    `gorm:"-" json:"teacher,omitempty"`
	SubjectID          uint           `gorm:"not null;index" json:"subjectId"`
	Subject            *Subject       `json:"subject,omitempty"`
	Approved           bool           `gorm:"not null;default:false;index" json:"approved"`
	CoverImageURL      string         `gorm:"column:cover_image_url" json:"coverImageUrl"`
	ResourceURLs       datatypes.JSON `gorm:"column:resource_urls" json:"resourceUrls"`
	LearningObjectives datatypes.JSON `gorm:"column:learning_objectives" json:"learningObjectives"`
	Features           datatypes.JSON `gorm:"column:features" json:"features"`
	Prerequisites      string         `gorm:"type:text" json:"prerequisites"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	Chapters           []Chapter      `gorm:"constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	Enrollments        []Enrollment   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// AfterFind exposes only the public part of a preloaded teacher.
func (c *Course) AfterFind(*gorm.DB) error {
	if c.Teacher != nil {
		c.Instructor = c.Teacher.Instructor()
	}
	return nil
}

// Chapter titles are unique per course; SortOrder is exposed as "order".
type Chapter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;uniqueIndex:idx_chapter_course_title" json:"title"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_chapter_course_title;index" json:"courseId"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Sections  []Section `gorm:"constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

// Section carries exactly one of VideoURL (a YouTube video id) or PDFURL.
type Section struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;uniqueIndex:idx_section_chapter_title" json:"title"`
	ChapterID uint      `gorm:"not null;uniqueIndex:idx_section_chapter_title;index" json:"chapterId"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	VideoURL  *string   `gorm:"column:video_url" json:"videoUrl"`
	PDFURL    *string   `gorm:"column:pdf_url" json:"pdfUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
