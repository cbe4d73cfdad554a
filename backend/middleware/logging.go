package middleware

import (
	"log"
	"strconv"
	"time"

	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// LoggingMiddleware пишет строку на каждый запрос
func LoggingMiddleware(logger *log.Logger, colors bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Передаем управление следующему обработчику
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = utils.StatusOf(err)
		}
		method := c.Method()
		statusText := strconv.Itoa(status)
		if colors {
			method = utils.Colorize(utils.MethodColor(method), method)
			statusText = utils.Colorize(utils.StatusColor(status), statusText)
		}

		requestID, _ := c.Locals("requestid").(string)
		if err != nil {
			logger.Printf("%s %s %s %s %v rid=%s err=%v", c.IP(), method, c.Path(), statusText, time.Since(start), requestID, err)
		} else {
			logger.Printf("%s %s %s %s %v rid=%s", c.IP(), method, c.Path(), statusText, time.Since(start), requestID)
		}

		return err
	}
}
