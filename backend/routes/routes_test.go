package routes

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"tunilearn/backend/config"
	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Data    interface{}            `json:"data"`
	Details map[string]interface{} `json:"details"`
}

func (e envelope) object() map[string]interface{} {
	m, _ := e.Data.(map[string]interface{})
	return m
}

func (e envelope) list() []interface{} {
	l, _ := e.Data.([]interface{})
	return l
}

func newTestServer(t *testing.T) *testServer {
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

	cfg := &config.Config{
		JWTSecret:   "testsecret",
		JWTTTL:      time.Hour,
		CORSOrigin:  "http://localhost:3000",
		FrontendURL: "http://localhost:3000",
		BodyLimitMB: 20,
		UploadDir:   t.TempDir(),
		LogFormat:   "json",
	}
	logger := log.New(io.Discard, "", 0)
	return &testServer{t: t, app: NewApp(db, cfg, logger), db: db, cfg: cfg}
}

func (s *testServer) user(name, role string) (*models.User, string) {
	s.t.Helper()
	user := &models.User{Name: name, Email: name + "@tunilearn.com", Role: role, ProfileCompleted: true}
	require.NoError(s.t, s.db.Create(user).Error)
	token, err := utils.GenerateJWTToken(user, s.cfg)
	require.NoError(s.t, err)
	return user, token
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (int, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)

	var env envelope
	if len(raw) > 0 {
		require.NoError(s.t, sonic.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func idOf(t *testing.T, env envelope) uint {
	t.Helper()
	id, ok := env.object()["id"].(float64)
	require.True(t, ok, "response has no id: %+v", env)
	return uint(id)
}

func TestApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)
	_, teacherA := s.user("teacher-a", models.RoleTeacher)
	_, teacherB := s.user("teacher-b", models.RoleTeacher)

	status, env := s.do(fiber.MethodPost, "/api/subjects", admin, fiber.Map{"name": "Mathematics"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	subjectID := idOf(t, env)

	status, env = s.do(fiber.MethodPost, "/api/courses", teacherA, fiber.Map{
		"title":              "Linear Algebra",
		"description":        "Vectors, matrices and linear maps",
		"price":              0,
		"subjectId":          subjectID,
		"learningObjectives": "Invert a matrix",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	courseID := idOf(t, env)
	assert.Equal(t, false, env.object()["approved"])
	assert.Equal(t, []interface{}{"Invert a matrix"}, env.object()["learningObjectives"])

	status, env = s.do(fiber.MethodGet, "/api/courses", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, env.list())

	status, _ = s.do(fiber.MethodGet, fmt.Sprintf("/api/courses/%d", courseID), "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = s.do(fiber.MethodPost, fmt.Sprintf("/api/courses/%d/chapters", courseID), teacherB, fiber.Map{"title": "Vectors"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Course not found or access denied", env.Message)

	status, env = s.do(fiber.MethodPut, fmt.Sprintf("/api/courses/%d", courseID), teacherB, fiber.Map{"title": "ab"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Course not found or access denied", env.Message)

	status, env = s.do(fiber.MethodPost, fmt.Sprintf("/api/courses/%d/chapters", courseID), teacherB, fiber.Map{"title": "x"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Course not found or access denied", env.Message)

	status, _ = s.do(fiber.MethodDelete, fmt.Sprintf("/api/courses/%d", courseID), "", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(fiber.MethodPatch, fmt.Sprintf("/api/courses/%d/approve", courseID), teacherA, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(fiber.MethodPatch, fmt.Sprintf("/api/courses/%d/approve", courseID), admin, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, true, env.object()["approved"])

	status, env = s.do(fiber.MethodGet, "/api/courses", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, env.list(), 1)
	listed := env.list()[0].(map[string]interface{})
	assert.Equal(t, float64(courseID), listed["id"])
	teacher, ok := listed["teacher"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "teacher-a", teacher["name"])
	assert.NotContains(t, teacher, "email")
	assert.NotContains(t, teacher, "createdAt")
}

func TestAuthoringAndEnrollment(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)
	_, teacher := s.user("teacher", models.RoleTeacher)
	student, studentToken := s.user("student", models.RoleStudent)

	_, env := s.do(fiber.MethodPost, "/api/subjects", teacher, fiber.Map{"name": "Science"})
	subjectID := idOf(t, env)
	status, _ := s.do(fiber.MethodPost, "/api/subjects", admin, fiber.Map{"name": "science"})
	assert.Equal(t, fiber.StatusConflict, status)
	status, _ = s.do(fiber.MethodPost, "/api/subjects", studentToken, fiber.Map{"name": "Art"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(fiber.MethodPost, "/api/courses/compose", teacher, fiber.Map{
		"course": fiber.Map{
			"title":       "Optics",
			"description": "Light, lenses and mirrors",
			"subjectId":   subjectID,
		},
		"chapters": []fiber.Map{
			{"title": "Reflection", "sections": []fiber.Map{
				{"title": "Mirrors", "videoUrl": "https://youtu.be/dQw4w9WgXcQ"},
			}},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	courseID := idOf(t, env)
	chapters := env.object()["chapters"].([]interface{})
	require.Len(t, chapters, 1)
	chapterID := uint(chapters[0].(map[string]interface{})["id"].(float64))

	status, env = s.do(fiber.MethodPost, fmt.Sprintf("/api/chapters/%d/sections", chapterID), teacher, fiber.Map{
		"title":    "Both kinds",
		"videoUrl": "https://youtu.be/dQw4w9WgXcQ",
		"pdfUrl":   "/uploads/resources/x.pdf",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Section cannot have both video and PDF content", env.Details["content"])

	status, env = s.do(fiber.MethodPost, "/api/sections", teacher, fiber.Map{
		"chapterId": chapterID,
		"title":     "Lenses",
		"videoUrl":  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	assert.Equal(t, "dQw4w9WgXcQ", env.object()["videoUrl"])
	assert.Equal(t, float64(2), env.object()["order"])

	status, _ = s.do(fiber.MethodPost, "/api/enrollments", studentToken, fiber.Map{"courseId": courseID})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(fiber.MethodPatch, fmt.Sprintf("/api/courses/%d/approve", courseID), admin, fiber.Map{"approved": true})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(fiber.MethodPost, "/api/enrollments", teacher, fiber.Map{"courseId": courseID})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(fiber.MethodPost, "/api/enrollments", studentToken, fiber.Map{"courseId": courseID})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	status, _ = s.do(fiber.MethodPost, "/api/enrollments", studentToken, fiber.Map{"courseId": courseID})
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do(fiber.MethodGet, fmt.Sprintf("/api/enrollments/students/%d/enrollments", student.ID), studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, env.list(), 1)

	status, _ = s.do(fiber.MethodGet, fmt.Sprintf("/api/enrollments/students/%d/enrollments", student.ID), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = s.do(fiber.MethodGet, "/api/dashboard/teacher", teacher, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), env.object()["totalEnrollments"])

	status, _ = s.do(fiber.MethodGet, "/api/dashboard/admin", teacher, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(fiber.MethodDelete, fmt.Sprintf("/api/courses/%d", courseID), teacher, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var count int64
	require.NoError(t, s.db.Model(&models.Enrollment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	register := fiber.Map{"name": "Yasmine", "email": "yasmine@example.com", "password": "Passw0rd", "role": "STUDENT"}
	status, env := s.do(fiber.MethodPost, "/api/auth/register", "", register)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	assert.Equal(t, "User registered successfully!", env.Message)
	token, _ := env.object()["token"].(string)
	require.NotEmpty(t, token)

	status, env = s.do(fiber.MethodPost, "/api/auth/register", "", register)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Email already registered.", env.Message)

	status, env = s.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "yasmine@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials.", env.Message)

	status, env = s.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "yasmine@example.com", "password": "Passw0rd"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Login successful!", env.Message)

	status, env = s.do(fiber.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "yasmine@example.com", env.object()["email"])
	assert.NotContains(t, env.object(), "passwordHash")

	status, _ = s.do(fiber.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = s.do(fiber.MethodGet, "/api/auth/me", "broken-token", nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = s.do(fiber.MethodGet, "/api/auth/check", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, env.object()["authenticated"])

	status, _ = s.do(fiber.MethodPost, "/api/auth/complete-profile", token, fiber.Map{"role": "TEACHER"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(fiber.MethodGet, "/api/auth/google", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestProfileCompletionGate(t *testing.T) {
	s := newTestServer(t)
	user := &models.User{Name: "fresh", Email: "fresh@example.com", Role: models.RoleStudent}
	require.NoError(t, s.db.Create(user).Error)
	token, err := utils.GenerateJWTToken(user, s.cfg)
	require.NoError(t, err)

	status, env := s.do(fiber.MethodGet, "/api/dashboard/student", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Profile completion required.", env.Message)

	status, env = s.do(fiber.MethodPost, "/api/auth/complete-profile", token, fiber.Map{"role": "TEACHER", "bio": "Chemist"})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, "/teacher/dashboard", env.object()["redirect"])
	fresh, _ := env.object()["token"].(string)

	status, _ = s.do(fiber.MethodGet, "/api/dashboard/teacher", fresh, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCreateCourseMultipart(t *testing.T) {
	s := newTestServer(t)
	_, teacher := s.user("teacher", models.RoleTeacher)
	subject := models.Subject{Name: "Art", Slug: "art"}
	require.NoError(t, s.db.Create(&subject).Error)

	req := formRequest(t, fiber.MethodPost, "/api/courses", [][2]string{
		{"title", "Painting"},
		{"description", "Colour theory and brushwork"},
		{"subjectId", fmt.Sprint(subject.ID)},
		{"price", "19.5"},
		{"features", `["Certificate","Lifetime access"]`},
	}, pngPart(t, "thumbnail"))
	status, env := s.send(req, teacher)
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	course := env.object()
	assert.Equal(t, 19.5, course["price"])
	assert.Equal(t, []interface{}{"Certificate", "Lifetime access"}, course["features"])
	cover, _ := course["coverImageUrl"].(string)
	assert.Regexp(t, `^/uploads/thumb-\d+-\d+\.png$`, cover)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, cover, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

type filePart struct {
	field, filename, contentType string
	data                         []byte
}

func pngPart(t *testing.T, field string) filePart {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return filePart{field: field, filename: "cover.png", contentType: "image/png", data: img.Bytes()}
}

// formRequest builds a multipart request; fields keep their order and may repeat.
func formRequest(t *testing.T, method, path string, fields [][2]string, files ...filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func (s *testServer) storedThumbnails() []string {
	s.t.Helper()
	entries, err := os.ReadDir(s.cfg.UploadDir)
	require.NoError(s.t, err)
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "thumb-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestCourseFormLists(t *testing.T) {
	s := newTestServer(t)
	_, teacher := s.user("teacher", models.RoleTeacher)
	subject := models.Subject{Name: "Calculus", Slug: "calculus"}
	require.NoError(t, s.db.Create(&subject).Error)

	status, env := s.send(formRequest(t, fiber.MethodPost, "/api/courses", [][2]string{
		{"title", "Calculus I"},
		{"description", "Limits and derivatives"},
		{"subjectId", fmt.Sprint(subject.ID)},
		{"learningObjectives", "limits"},
		{"learningObjectives", "derivatives"},
		{"features[]", "videos"},
	}), teacher)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	course := env.object()
	assert.Equal(t, []interface{}{"limits", "derivatives"}, course["learningObjectives"])
	assert.Equal(t, []interface{}{"videos"}, course["features"])
	courseID := idOf(t, env)

	status, env = s.send(formRequest(t, fiber.MethodPut, fmt.Sprintf("/api/courses/%d", courseID), [][2]string{
		{"features[]", "quizzes"},
		{"features[]", "certificate"},
	}), teacher)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, []interface{}{"quizzes", "certificate"}, env.object()["features"])
	assert.Equal(t, []interface{}{"limits", "derivatives"}, env.object()["learningObjectives"])
}

func TestUpdateCourseThumbnail(t *testing.T) {
	s := newTestServer(t)
	_, owner := s.user("owner", models.RoleTeacher)
	_, other := s.user("other", models.RoleTeacher)
	subject := models.Subject{Name: "Design", Slug: "design"}
	require.NoError(t, s.db.Create(&subject).Error)

	fields := [][2]string{
		{"title", "Typography"},
		{"description", "Type, grids and hierarchy"},
		{"subjectId", fmt.Sprint(subject.ID)},
	}
	status, env := s.send(formRequest(t, fiber.MethodPost, "/api/courses", fields, pngPart(t, "thumbnail")), owner)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	courseID := idOf(t, env)
	original, _ := env.object()["coverImageUrl"].(string)
	require.Len(t, s.storedThumbnails(), 1)

	path := fmt.Sprintf("/api/courses/%d", courseID)
	status, _ = s.send(formRequest(t, fiber.MethodPut, path, [][2]string{{"title", "ab"}}, pngPart(t, "thumbnail")), other)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Len(t, s.storedThumbnails(), 1, "nothing is stored for a caller who cannot edit")

	time.Sleep(2 * time.Millisecond)
	status, env = s.send(formRequest(t, fiber.MethodPut, path, nil, pngPart(t, "thumbnail")), owner)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	replaced, _ := env.object()["coverImageUrl"].(string)
	assert.NotEqual(t, original, replaced)

	stored := s.storedThumbnails()
	require.Len(t, stored, 1)
	assert.Equal(t, strings.TrimPrefix(replaced, "/uploads/"), stored[0])
}
