package utils

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AppError ошибка с HTTP-кодом и сообщением для клиента
type AppError struct {
	Code    int
	Message string
	Fields  map[string]string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewBadRequest(message string) *AppError {
	return &AppError{Code: fiber.StatusBadRequest, Message: message}
}

func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Code: fiber.StatusBadRequest, Message: message, Fields: fields}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: fiber.StatusUnauthorized, Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: fiber.StatusForbidden, Message: message}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: fiber.StatusNotFound, Message: message}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: fiber.StatusConflict, Message: message}
}

// FieldError одна ошибка валидации поля
type FieldError struct {
	Field   string
	Message string
}

// Violations собирает ошибки валидации в порядке проверки
type Violations []FieldError

func (v *Violations) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Err возвращает nil, если ошибок нет, иначе ValidationError
// с сообщением "Validation failed: a, b".
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	messages := make([]string, 0, len(v))
	fields := make(map[string]string, len(v))
	for _, fe := range v {
		messages = append(messages, fe.Message)
		if _, exists := fields[fe.Field]; !exists {
			fields[fe.Field] = fe.Message
		}
	}
	return NewValidationError("Validation failed: "+strings.Join(messages, ", "), fields)
}

// StatusOf определяет HTTP-код для ошибки
func StatusOf(err error) int {
	switch cause := errors.Cause(err).(type) {
	case *AppError:
		return cause.Code
	case *fiber.Error:
		return cause.Code
	}

	cause := errors.Cause(err)
	switch {
	case errors.Is(cause, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(cause, gorm.ErrDuplicatedKey):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// IsNotFound сообщает, соответствует ли ошибка ответу 404
func IsNotFound(err error) bool {
	return err != nil && StatusOf(err) == fiber.StatusNotFound
}

// HandleError переводит ошибку сервиса в JSON ответ
func HandleError(c *fiber.Ctx, logger *log.Logger, err error) error {
	switch cause := errors.Cause(err).(type) {
	case *AppError:
		if len(cause.Fields) > 0 {
			return Error(c, cause.Code, cause, cause.Fields)
		}
		return Error(c, cause.Code, cause)
	case *fiber.Error:
		return Error(c, cause.Code, cause)
	}

	switch StatusOf(err) {
	case fiber.StatusNotFound:
		return NotFound(c, "Resource not found")
	case fiber.StatusConflict:
		return Error(c, fiber.StatusConflict, errors.New("Resource already exists"))
	}

	if logger != nil {
		logger.Printf("%s %s: %+v", c.Method(), c.Path(), err)
	}
	return InternalServerError(c, "Internal server error")
}

// NewErrorHandler возвращает fiber.ErrorHandler с тем же отображением ошибок
func NewErrorHandler(logger *log.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return HandleError(c, logger, err)
	}
}

func joinMessages(fields map[string]string) string {
	messages := make([]string, 0, len(fields))
	for _, msg := range fields {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	return "Validation failed: " + strings.Join(messages, ", ")
}
