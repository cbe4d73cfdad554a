package middleware

import (
	"strings"

	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// UploadFields limits which multipart file fields a route accepts and how many files each may carry.
// Non-multipart requests pass through untouched.
func UploadFields(limits map[string]int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
			return c.Next()
		}
		form, err := c.MultipartForm()
		if err != nil {
			return utils.BadRequest(c, "Invalid multipart form")
		}
		for field, files := range form.File {
			limit, ok := limits[strings.TrimSuffix(field, "[]")]
			if !ok {
				return utils.BadRequest(c, services.MsgUnexpectedField)
			}
			if len(files) > limit {
				return utils.BadRequest(c, services.MsgTooManyFiles)
			}
		}
		return c.Next()
	}
}
