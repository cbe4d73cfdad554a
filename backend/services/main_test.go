package services

import (
	"testing"
	"time"

	"tunilearn/backend/config"
	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, utils.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "testsecret", JWTTTL: time.Hour, UploadDir: "uploads"}
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:             name,
		Email:            name + "@tunilearn.com",
		Role:             role,
		ProfileCompleted: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createSubject(t *testing.T, db *gorm.DB, name string) *models.Subject {
	t.Helper()
	subject, err := NewSubjectService(db).Create(name)
	require.NoError(t, err)
	return subject
}

func createCourse(t *testing.T, db *gorm.DB, teacher *models.User, subject *models.Subject, title string) *models.Course {
	t.Helper()
	course, err := NewCourseService(db).CreateCourse(CourseInput{
		Title:       title,
		Description: "A course used in tests",
		SubjectID:   subject.ID,
		TeacherID:   teacher.ID,
	})
	require.NoError(t, err)
	return course
}

func actorFor(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role, ProfileCompleted: user.ProfileCompleted}
}

// assertAppError checks the status code and, when message is set, the message.
func assertAppError(t *testing.T, err error, code int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.Cause(err).(*utils.AppError)
	require.True(t, ok, "expected *utils.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func intPtr(n int) *int { return &n }

func asAppError(t *testing.T, err error) *utils.AppError {
	t.Helper()
	appErr, ok := errors.Cause(err).(*utils.AppError)
	require.True(t, ok, "expected *utils.AppError, got %T", err)
	return appErr
}
