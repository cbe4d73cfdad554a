package services

import (
	"testing"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChapter(t *testing.T) (*CourseService, Actor, *models.Course, *models.Chapter) {
	t.Helper()
	db := newTestDB(t)
	svc := NewCourseService(db)
	teacher := createUser(t, db, "teacher", models.RoleTeacher)
	subject := createSubject(t, db, "Science")
	course := createCourse(t, db, teacher, subject, "Geology")
	actor := actorFor(teacher)
	chapter, err := svc.AddChapterToCourse(actor, course.ID, ChapterInput{Title: "Rocks"})
	require.NoError(t, err)
	return svc, actor, course, chapter
}

func TestSectionContentRules(t *testing.T) {
	svc, actor, _, chapter := newChapter(t)

	_, err := svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Empty"})
	assertAppError(t, err, fiber.StatusBadRequest, "")
	assert.Equal(t, MsgContentMissing, asAppError(t, err).Fields["content"])

	_, err = svc.AddSectionToChapter(actor, chapter.ID, SectionInput{
		Title:    "Both",
		VideoURL: "https://youtu.be/dQw4w9WgXcQ",
		PDFURL:   "/uploads/resources/a.pdf",
	})
	assertAppError(t, err, fiber.StatusBadRequest, "")
	assert.Equal(t, MsgContentBoth, asAppError(t, err).Fields["content"])

	_, err = svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Vimeo", VideoURL: "https://vimeo.com/42"})
	assertAppError(t, err, fiber.StatusBadRequest, "")
	assert.Equal(t, utils.MsgInvalidYouTube, asAppError(t, err).Fields["videoUrl"])

	video, err := svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Video", VideoURL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	require.NotNil(t, video.VideoURL)
	assert.Equal(t, "dQw4w9WgXcQ", *video.VideoURL)
	assert.Nil(t, video.PDFURL)
	assert.Equal(t, 1, video.SortOrder)

	pdf, err := svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Reading", PDFURL: "/uploads/resources/a.pdf"})
	require.NoError(t, err)
	assert.Nil(t, pdf.VideoURL)
	require.NotNil(t, pdf.PDFURL)
	assert.Equal(t, 2, pdf.SortOrder)

	_, err = svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Video", PDFURL: "/uploads/resources/b.pdf"})
	assertAppError(t, err, fiber.StatusBadRequest, MsgDuplicateSection)
}

func TestUpdateSectionContentReplacesWholesale(t *testing.T) {
	svc, actor, _, chapter := newChapter(t)
	section, err := svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Lesson", VideoURL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)

	updated, err := svc.UpdateSectionContent(actor, section.ID, "", "/uploads/resources/notes.pdf")
	require.NoError(t, err)
	assert.Nil(t, updated.VideoURL)
	require.NotNil(t, updated.PDFURL)
	assert.Equal(t, "/uploads/resources/notes.pdf", *updated.PDFURL)

	back, err := svc.UpdateSectionContent(actor, section.ID, "https://www.youtube.com/embed/abcdefghijk", "")
	require.NoError(t, err)
	require.NotNil(t, back.VideoURL)
	assert.Equal(t, "abcdefghijk", *back.VideoURL)
	assert.Nil(t, back.PDFURL)

	_, err = svc.UpdateSectionContent(actor, section.ID, "", "")
	assertAppError(t, err, fiber.StatusBadRequest, "")

	title := "Renamed"
	renamed, err := svc.UpdateSection(actor, section.ID, SectionUpdate{Title: &title, Order: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)
	assert.Equal(t, 3, renamed.SortOrder)
	require.NotNil(t, renamed.VideoURL, "content is kept when not supplied")
}

func TestSectionOwnershipAndVisibility(t *testing.T) {
	svc, actor, course, chapter := newChapter(t)
	section, err := svc.AddSectionToChapter(actor, chapter.ID, SectionInput{Title: "Lesson", VideoURL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)

	other := createUser(t, svc.DB, "other", models.RoleTeacher)
	_, err = svc.AddSectionToChapter(actorFor(other), chapter.ID, SectionInput{Title: "Mine", VideoURL: "https://youtu.be/dQw4w9WgXcQ"})
	assertAppError(t, err, fiber.StatusForbidden, MsgCourseAccessDenied)
	assertAppError(t, svc.DeleteSection(actorFor(other), section.ID), fiber.StatusForbidden, MsgCourseAccessDenied)

	blank := ""
	_, err = svc.AddSectionToChapter(actorFor(other), chapter.ID, SectionInput{Title: "x"})
	assertAppError(t, err, fiber.StatusForbidden, MsgCourseAccessDenied)
	_, err = svc.UpdateSection(actorFor(other), section.ID, SectionUpdate{Title: &blank})
	assertAppError(t, err, fiber.StatusForbidden, MsgCourseAccessDenied)
	_, err = svc.UpdateSectionContent(actorFor(other), section.ID, "", "")
	assertAppError(t, err, fiber.StatusForbidden, MsgCourseAccessDenied)
	_, err = svc.UpdateChapter(actorFor(other), chapter.ID, ChapterUpdate{Order: intPtr(-1)})
	assertAppError(t, err, fiber.StatusForbidden, MsgCourseAccessDenied)

	_, err = svc.GetSection(Actor{}, section.ID)
	assertAppError(t, err, fiber.StatusNotFound, MsgSectionNotFound)
	_, err = svc.GetChapter(actorFor(other), chapter.ID)
	assertAppError(t, err, fiber.StatusNotFound, MsgChapterNotFound)

	own, err := svc.GetChapter(actor, chapter.ID)
	require.NoError(t, err)
	assert.Len(t, own.Sections, 1)

	anonymous, err := svc.ListSections(Actor{}, chapter.ID)
	require.NoError(t, err)
	assert.Empty(t, anonymous)

	admin := createUser(t, svc.DB, "admin", models.RoleAdmin)
	_, err = svc.SetApproval(actorFor(admin), course.ID, true)
	require.NoError(t, err)

	visible, err := svc.ListSections(Actor{}, chapter.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
	chapters, err := svc.ListChapters(Actor{}, course.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)

	require.NoError(t, svc.DeleteChapter(actor, chapter.ID))
	var count int64
	require.NoError(t, svc.DB.Model(&models.Section{}).Count(&count).Error)
	assert.Zero(t, count)
}
