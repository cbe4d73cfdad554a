package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractYouTubeID(t *testing.T) {
	cases := []struct{ url, want string }{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"http://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/v/dQw4w9WgXcQ?version=3", "dQw4w9WgXcQ"},
		{"  https://youtu.be/dQw4w9WgXcQ  ", "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		id, ok := ExtractYouTubeID(tc.url)
		assert.True(t, ok, tc.url)
		assert.Equal(t, tc.want, id, tc.url)
	}

	for _, url := range []string{
		"",
		"https://vimeo.com/123456",
		"https://youtu.be/short",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"https://example.com/?v=dQw4w9WgXcQ",
	} {
		_, ok := ExtractYouTubeID(url)
		assert.False(t, ok, url)
		assert.False(t, IsYouTubeURL(url), url)
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Passw0rd"))
	assert.True(t, IsStrongPassword("abcDEF123"))
	assert.False(t, IsStrongPassword("Pass0rd"))
	assert.False(t, IsStrongPassword("password1"))
	assert.False(t, IsStrongPassword("PASSWORD1"))
	assert.False(t, IsStrongPassword("Password"))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("student@tunilearn.com"))
	assert.False(t, IsEmail("student@"))
	assert.False(t, IsEmail("not an email"))
	assert.False(t, IsEmail(""))
}

func TestMinLength(t *testing.T) {
	assert.True(t, MinLength("Go", 2))
	assert.False(t, MinLength("  G  ", 2))
	assert.True(t, MinLength("ét", 2))
}

func TestValidateStruct(t *testing.T) {
	type signup struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,password"`
		Role     string `json:"role" validate:"required,oneof=STUDENT TEACHER"`
	}

	assert.NoError(t, ValidateStruct(signup{Email: "a@b.co", Password: "Passw0rd", Role: "STUDENT"}))

	err := ValidateStruct(signup{Email: "bad", Password: "weak", Role: "ADMIN"})
	assert.Error(t, err)
	assert.Equal(t, 400, StatusOf(err))
	appErr, ok := err.(*AppError)
	if assert.True(t, ok) {
		assert.Equal(t, MsgInvalidEmail, appErr.Fields["email"])
		assert.Equal(t, MsgWeakPassword, appErr.Fields["password"])
		assert.Equal(t, MsgInvalidRole, appErr.Fields["role"])
	}

	err = ValidateStruct(signup{Email: "a@b.co", Password: "Passw0rd"})
	assert.Equal(t, &AppError{Code: 400, Message: "role is required", Fields: map[string]string{"role": "role is required"}}, err)
}
