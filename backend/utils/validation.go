package utils

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	MsgInvalidEmail   = "Invalid email format."
	MsgWeakPassword   = "Password is too weak. Use at least 8 characters, with one uppercase letter, one lowercase letter, and one number."
	MsgInvalidRole    = "Invalid role."
	MsgInvalidYouTube = "Invalid YouTube URL format"
)

// Validate общий экземпляр валидатора; имена полей берутся из json-тегов
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateStruct проверяет структуру по тегам validate.
// Ошибки полей возвращаются как AppError 400 с картой поле -> сообщение.
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return errors.WithStack(err)
	}
	fields := ValidationMessages(errs)
	if len(errs) == 1 {
		return NewValidationError(fields[errs[0].Field()], fields)
	}
	return NewValidationError(joinMessages(fields), fields)
}

// IsEmail проверяет формат email
func IsEmail(email string) bool {
	return Validate.Var(email, "required,email") == nil
}

// IsStrongPassword: не меньше 8 символов, есть строчная, заглавная буква и цифра
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// ValidationMessages переводит ошибки validator в карту поле -> сообщение
func ValidationMessages(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return MsgInvalidEmail
	case "password":
		return MsgWeakPassword
	case "oneof":
		if fe.Field() == "role" {
			return MsgInvalidRole
		}
		return fe.Field() + " must be one of: " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters long"
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

var youTubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// ExtractYouTubeID возвращает 11-символьный id видео из ссылок вида
// watch?v=, embed/, youtu.be/ и /v/.
func ExtractYouTubeID(url string) (string, bool) {
	url = strings.TrimSpace(url)
	for _, re := range youTubePatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsYouTubeURL сообщает, распознается ли ссылка на YouTube
func IsYouTubeURL(url string) bool {
	_, ok := ExtractYouTubeID(url)
	return ok
}

// MinLength считает длину после обрезки пробелов
func MinLength(s string, n int) bool {
	return len([]rune(strings.TrimSpace(s))) >= n
}
