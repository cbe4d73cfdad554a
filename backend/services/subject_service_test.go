package services

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjects(t *testing.T) {
	svc := NewSubjectService(newTestDB(t))

	math, err := svc.Create("  Mathematics ")
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", math.Name)
	assert.Equal(t, "mathematics", math.Slug)

	_, err = svc.Create("mathematics")
	assertAppError(t, err, fiber.StatusConflict, MsgSubjectExists)
	_, err = svc.Create("   ")
	assertAppError(t, err, fiber.StatusBadRequest, "Subject name is required")

	_, err = svc.Create("Computer Science")
	require.NoError(t, err)
	_, err = svc.Create("Art")
	require.NoError(t, err)

	subjects, err := svc.List()
	require.NoError(t, err)
	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Art", "Computer Science", "Mathematics"}, names)
}
