package middleware

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"tunilearn/backend/config"
	"tunilearn/backend/models"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = &config.Config{JWTSecret: "testsecret", JWTTTL: time.Hour}

func tokenFor(t *testing.T, id uint, role string, completed bool) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(&models.User{ID: id, Role: role, ProfileCompleted: completed}, testCfg)
	require.NoError(t, err)
	return token
}

func gatedApp() *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Use(Identify(testCfg))
	app.Get("/open", func(c *fiber.Ctx) error {
		if CurrentClaims(c) == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(CurrentClaims(c).Role)
	})
	app.Get("/auth", RequireAuth(), ok)
	app.Get("/admin", IsAdmin(), ok)
	app.Get("/teacher", IsTeacher(), ok)
	app.Get("/student", IsStudent(), ok)
	app.Get("/staff", IsTeacherOrAdmin(), ok)
	app.Get("/complete", RequireProfileCompletion(), ok)
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func errorMessage(t *testing.T, body string) string {
	t.Helper()
	var payload utils.ErrorResponse
	require.NoError(t, sonic.UnmarshalString(body, &payload))
	return payload.Message
}

func TestIdentifyIsOptional(t *testing.T) {
	app := gatedApp()

	status, body := call(t, app, "/open", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = call(t, app, "/open", "not-a-token")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = call(t, app, "/open", tokenFor(t, 3, models.RoleTeacher, true))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.RoleTeacher, body)
}

func TestRequireAuth(t *testing.T) {
	app := gatedApp()

	status, body := call(t, app, "/auth", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, MsgNoToken, errorMessage(t, body))

	status, body = call(t, app, "/auth", "not-a-token")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, MsgInvalidToken, errorMessage(t, body))

	status, _ = call(t, app, "/auth", tokenFor(t, 1, models.RoleStudent, true))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRoleGates(t *testing.T) {
	app := gatedApp()
	admin := tokenFor(t, 1, models.RoleAdmin, true)
	teacher := tokenFor(t, 2, models.RoleTeacher, true)
	student := tokenFor(t, 3, models.RoleStudent, true)

	cases := []struct {
		path, token string
		want        int
	}{
		{"/admin", admin, fiber.StatusOK},
		{"/admin", teacher, fiber.StatusForbidden},
		{"/admin", "", fiber.StatusForbidden},
		{"/teacher", teacher, fiber.StatusOK},
		{"/teacher", admin, fiber.StatusForbidden},
		{"/student", student, fiber.StatusOK},
		{"/student", teacher, fiber.StatusForbidden},
		{"/staff", teacher, fiber.StatusOK},
		{"/staff", admin, fiber.StatusOK},
		{"/staff", student, fiber.StatusForbidden},
		{"/staff", "", fiber.StatusForbidden},
		{"/staff", "garbage", fiber.StatusForbidden},
	}
	for _, tc := range cases {
		status, _ := call(t, app, tc.path, tc.token)
		assert.Equal(t, tc.want, status, "%s with %q", tc.path, tc.token)
	}

	_, body := call(t, app, "/teacher", student)
	assert.Equal(t, MsgTeacherOnly, errorMessage(t, body))
}

func TestRequireProfileCompletion(t *testing.T) {
	app := gatedApp()

	status, body := call(t, app, "/complete", tokenFor(t, 4, models.RoleStudent, false))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, MsgProfileIncomplete, errorMessage(t, body))

	status, _ = call(t, app, "/complete", tokenFor(t, 4, models.RoleStudent, true))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestUploadFields(t *testing.T) {
	app := fiber.New()
	app.Post("/upload", UploadFields(map[string]int{"thumbnail": 1, "resources": 2}), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	post := func(files map[string]int) (int, string) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("title", "Course"))
		for field, n := range files {
			for i := 0; i < n; i++ {
				part, err := w.CreateFormFile(field, "f.png")
				require.NoError(t, err)
				_, err = part.Write([]byte("x"))
				require.NoError(t, err)
			}
		}
		require.NoError(t, w.Close())
		req := httptest.NewRequest(fiber.MethodPost, "/upload", &body)
		req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
		resp, err := app.Test(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(raw)
	}

	status, _ := post(map[string]int{"thumbnail": 1, "resources[]": 2})
	assert.Equal(t, fiber.StatusOK, status)

	status, body := post(map[string]int{"thumbnail": 2})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.MsgTooManyFiles, errorMessage(t, body))

	status, body = post(map[string]int{"avatar": 1})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, services.MsgUnexpectedField, errorMessage(t, body))

	req := httptest.NewRequest(fiber.MethodPost, "/upload", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
