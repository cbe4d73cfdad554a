package controllers

import (
	"mime/multipart"
	"strconv"
	"strings"

	"tunilearn/backend/middleware"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// actorOf builds the service caller from the verified token claims.
func actorOf(c *fiber.Ctx) services.Actor {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return services.Actor{}
	}
	return services.Actor{
		UserID:           claims.UserID,
		Role:             claims.Role,
		ProfileCompleted: claims.ProfileCompleted,
	}
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.NewBadRequest("Invalid " + name)
	}
	return uint(id), nil
}

func queryUint(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, utils.NewBadRequest("Invalid " + name)
	}
	return uint(id), nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// formFiles returns the files sent under name or name[].
func formFiles(c *fiber.Ctx, name string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	files := append([]*multipart.FileHeader{}, form.File[name]...)
	return append(files, form.File[name+"[]"]...)
}

func formFile(c *fiber.Ctx, name string) *multipart.FileHeader {
	files := formFiles(c, name)
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// formString returns a pointer to a multipart text value, or nil when absent.
func formString(c *fiber.Ctx, name string) *string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// formList collects a list field sent as name or name[], possibly repeated.
// A single value may itself hold a JSON array. Returns nil when the field is absent.
func formList(c *fiber.Ctx, name string) *services.FlexList {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	values := append([]string{}, form.Value[name]...)
	values = append(values, form.Value[name+"[]"]...)
	if len(values) == 0 {
		return nil
	}
	var list services.FlexList
	if len(values) == 1 {
		list = services.ParseFlexList(values[0])
	} else {
		list = values
	}
	return &list
}

func formInt(c *fiber.Ctx, name, message string) (*int, error) {
	raw := formString(c, name)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, utils.NewValidationError(message, map[string]string{name: message})
	}
	return &n, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return utils.NewBadRequest("Cannot parse request body")
	}
	return nil
}
