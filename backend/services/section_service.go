package services

import (
	"strings"

	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	MsgSectionTitle     = "Section title must be at least 2 characters long"
	MsgSectionOrder     = "Section order must be a non-negative integer"
	MsgDuplicateSection = "A section with this title already exists in this chapter"
	MsgSectionNotFound  = "Section not found"
	MsgContentMissing   = "Section must have either a video URL or PDF file"
	MsgContentBoth      = "Section cannot have both video and PDF content"
)

type SectionInput struct {
	Title    string `json:"title"`
	Order    *int   `json:"order"`
	VideoURL string `json:"videoUrl"`
	PDFURL   string `json:"pdfUrl"`
}

// SectionUpdate replaces the content wholesale when either VideoURL or PDFURL is present.
type SectionUpdate struct {
	Title    *string `json:"title"`
	Order    *int    `json:"order"`
	VideoURL *string `json:"videoUrl"`
	PDFURL   *string `json:"pdfUrl"`
}

func (u SectionUpdate) hasContent() bool {
	return u.VideoURL != nil || u.PDFURL != nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

type sectionContent struct {
	VideoID *string
	PDFURL  *string
}

// resolveContent applies the rule that a section holds exactly one of a
// YouTube video or a PDF. The stored video value is the 11-character id.
func resolveContent(v *utils.Violations, videoURL, pdfURL string) sectionContent {
	videoURL = strings.TrimSpace(videoURL)
	pdfURL = strings.TrimSpace(pdfURL)

	switch {
	case videoURL == "" && pdfURL == "":
		v.Add("content", MsgContentMissing)
	case videoURL != "" && pdfURL != "":
		v.Add("content", MsgContentBoth)
	case videoURL != "":
		id, ok := utils.ExtractYouTubeID(videoURL)
		if !ok {
			v.Add("videoUrl", utils.MsgInvalidYouTube)
			break
		}
		return sectionContent{VideoID: &id}
	default:
		return sectionContent{PDFURL: &pdfURL}
	}
	return sectionContent{}
}

func (c sectionContent) columns() map[string]interface{} {
	cols := map[string]interface{}{"video_url": nil, "pdf_url": nil}
	if c.VideoID != nil {
		cols["video_url"] = *c.VideoID
	}
	if c.PDFURL != nil {
		cols["pdf_url"] = *c.PDFURL
	}
	return cols
}

func (s *CourseService) AddSectionToChapter(actor Actor, chapterID uint, in SectionInput) (*models.Section, error) {
	chapter, _, err := s.ownedChapter(actor, chapterID)
	if err != nil {
		return nil, err
	}

	var v utils.Violations
	if !utils.MinLength(in.Title, 2) {
		v.Add("title", MsgSectionTitle)
	}
	if in.Order != nil && *in.Order < 0 {
		v.Add("order", MsgSectionOrder)
	}
	content := resolveContent(&v, in.VideoURL, in.PDFURL)
	if err := v.Err(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if err := s.ensureUniqueSectionTitle(chapter.ID, title, 0); err != nil {
		return nil, err
	}

	var order int
	if in.Order != nil {
		order = *in.Order
	} else {
		order, err = s.nextOrder(&models.Section{}, "chapter_id", chapter.ID)
		if err != nil {
			return nil, err
		}
	}

	section := models.Section{
		Title:     title,
		ChapterID: chapter.ID,
		SortOrder: order,
		VideoURL:  content.VideoID,
		PDFURL:    content.PDFURL,
	}
	if err := s.DB.Create(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewValidationError(MsgDuplicateSection, map[string]string{"title": MsgDuplicateSection})
		}
		return nil, errors.Wrap(err, "create section")
	}
	return &section, nil
}

func (s *CourseService) ensureUniqueSectionTitle(chapterID uint, title string, exceptID uint) error {
	query := s.DB.Model(&models.Section{}).Where("chapter_id = ? AND title = ?", chapterID, title)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return errors.Wrap(err, "check section title")
	}
	if count > 0 {
		return utils.NewValidationError(MsgDuplicateSection, map[string]string{"title": MsgDuplicateSection})
	}
	return nil
}

func (s *CourseService) ownedSection(actor Actor, sectionID uint) (*models.Section, error) {
	var section models.Section
	if err := s.DB.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound(MsgSectionNotFound)
		}
		return nil, errors.Wrap(err, "find section")
	}
	if _, _, err := s.ownedChapter(actor, section.ChapterID); err != nil {
		return nil, err
	}
	return &section, nil
}

// UpdateSectionContent replaces the section's video or PDF. The previous content is cleared.
func (s *CourseService) UpdateSectionContent(actor Actor, sectionID uint, videoURL, pdfURL string) (*models.Section, error) {
	section, err := s.ownedSection(actor, sectionID)
	if err != nil {
		return nil, err
	}

	var v utils.Violations
	content := resolveContent(&v, videoURL, pdfURL)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.DB.Model(section).Updates(content.columns()).Error; err != nil {
		return nil, errors.Wrap(err, "update section content")
	}
	return s.loadSection(section.ID)
}

// UpdateSection changes title and order, and replaces content when any is supplied.
func (s *CourseService) UpdateSection(actor Actor, sectionID uint, in SectionUpdate) (*models.Section, error) {
	section, err := s.ownedSection(actor, sectionID)
	if err != nil {
		return nil, err
	}

	var v utils.Violations
	if in.Title != nil && !utils.MinLength(*in.Title, 2) {
		v.Add("title", MsgSectionTitle)
	}
	if in.Order != nil && *in.Order < 0 {
		v.Add("order", MsgSectionOrder)
	}
	var content sectionContent
	if in.hasContent() {
		content = resolveContent(&v, derefString(in.VideoURL), derefString(in.PDFURL))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := s.ensureUniqueSectionTitle(section.ChapterID, title, section.ID); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Order != nil {
		updates["sort_order"] = *in.Order
	}
	if in.hasContent() {
		for col, val := range content.columns() {
			updates[col] = val
		}
	}
	if len(updates) > 0 {
		if err := s.DB.Model(section).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, utils.NewValidationError(MsgDuplicateSection, map[string]string{"title": MsgDuplicateSection})
			}
			return nil, errors.Wrap(err, "update section")
		}
	}
	return s.loadSection(section.ID)
}

func (s *CourseService) DeleteSection(actor Actor, sectionID uint) error {
	section, err := s.ownedSection(actor, sectionID)
	if err != nil {
		return err
	}
	if err := s.DB.Delete(&models.Section{}, section.ID).Error; err != nil {
		return errors.Wrap(err, "delete section")
	}
	return nil
}

func (s *CourseService) loadSection(sectionID uint) (*models.Section, error) {
	var section models.Section
	if err := s.DB.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound(MsgSectionNotFound)
		}
		return nil, errors.Wrap(err, "load section")
	}
	return &section, nil
}

func sectionsWithCourse(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Section{}).
		Joins("JOIN chapters ON chapters.id = sections.chapter_id").
		Joins("JOIN courses ON courses.id = chapters.course_id")
}

func (s *CourseService) GetSection(viewer Actor, sectionID uint) (*models.Section, error) {
	var count int64
	err := visibleCourses(sectionsWithCourse(s.DB).Where("sections.id = ?", sectionID), viewer).
		Count(&count).Error
	if err != nil {
		return nil, errors.Wrap(err, "check section visibility")
	}
	if count == 0 {
		return nil, utils.NewNotFound(MsgSectionNotFound)
	}
	return s.loadSection(sectionID)
}

// ListSections lists readable sections, optionally for a single chapter.
func (s *CourseService) ListSections(viewer Actor, chapterID uint) ([]models.Section, error) {
	query := sectionsWithCourse(s.DB).Select("sections.*")
	if chapterID != 0 {
		query = query.Where("sections.chapter_id = ?", chapterID)
	}

	var sections []models.Section
	err := visibleCourses(query, viewer).
		Order("sections.chapter_id ASC, sections.sort_order ASC, sections.id ASC").
		Find(&sections).Error
	if err != nil {
		return nil, errors.Wrap(err, "list sections")
	}
	return sections, nil
}
