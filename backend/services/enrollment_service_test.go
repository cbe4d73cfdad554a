package services

import (
	"testing"

	"tunilearn/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	teacher := createUser(t, db, "teacher", models.RoleTeacher)
	student := createUser(t, db, "student", models.RoleStudent)
	admin := createUser(t, db, "admin", models.RoleAdmin)
	subject := createSubject(t, db, "Mathematics")
	course := createCourse(t, db, teacher, subject, "Geometry")

	_, _, err := svc.Enroll(actorFor(student), course.ID)
	assertAppError(t, err, fiber.StatusNotFound, "Course not found")

	_, err = NewCourseService(db).SetApproval(actorFor(admin), course.ID, true)
	require.NoError(t, err)

	first, created, err := svc.Enroll(actorFor(student), course.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Enroll(actorFor(student), course.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, _, err = svc.Enroll(actorFor(teacher), course.ID)
	assertAppError(t, err, fiber.StatusForbidden, "")
	_, _, err = svc.Enroll(actorFor(student), 9999)
	assertAppError(t, err, fiber.StatusNotFound, "")
}

func TestStudentEnrollmentsIncludeContent(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnrollmentService(db)
	courses := NewCourseService(db)
	teacher := createUser(t, db, "teacher", models.RoleTeacher)
	student := createUser(t, db, "student", models.RoleStudent)
	other := createUser(t, db, "other", models.RoleStudent)
	admin := createUser(t, db, "admin", models.RoleAdmin)
	subject := createSubject(t, db, "Literature")
	course := createCourse(t, db, teacher, subject, "Novels")

	chapter, err := courses.AddChapterToCourse(actorFor(teacher), course.ID, ChapterInput{Title: "Austen"})
	require.NoError(t, err)
	_, err = courses.AddSectionToChapter(actorFor(teacher), chapter.ID, SectionInput{Title: "Emma", PDFURL: "/uploads/resources/emma.pdf"})
	require.NoError(t, err)
	_, _, err = svc.CreateEnrollment(student.ID, course.ID)
	require.NoError(t, err)

	enrollments, err := svc.ListForStudent(actorFor(student), student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.NotNil(t, enrollments[0].Course)
	require.NotNil(t, enrollments[0].Course.Teacher)
	require.NotNil(t, enrollments[0].Course.Instructor)
	assert.Equal(t, teacher.ID, enrollments[0].Course.Instructor.ID)
	require.NotNil(t, enrollments[0].Course.Subject)
	require.Len(t, enrollments[0].Course.Chapters, 1)
	assert.Len(t, enrollments[0].Course.Chapters[0].Sections, 1)

	_, err = svc.ListForStudent(actorFor(other), student.ID)
	assertAppError(t, err, fiber.StatusForbidden, "")

	viaAdmin, err := svc.ListForStudent(actorFor(admin), student.ID)
	require.NoError(t, err)
	assert.Len(t, viaAdmin, 1)

	_, err = svc.ListForStudent(actorFor(admin), 9999)
	assertAppError(t, err, fiber.StatusNotFound, "Student not found")
}
